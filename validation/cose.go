package validation

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/veraison/go-cose"

	"github.com/cloudx-io/openbounty/bountyapi"
)

// ParsePublicKeyPEM parses the ECDSA public key a report was sealed with.
func ParsePublicKeyPEM(publicKeyPEM string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, errors.New("no PUBLIC KEY block found")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	ecKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not ECDSA")
	}
	return ecKey, nil
}

// ParseSealedReport decodes a COSE_Sign1 message without verifying it.
func ParseSealedReport(sealed bountyapi.SealedReportCOSE) (*cose.Sign1Message, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(sealed); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1: %w", err)
	}
	return &msg, nil
}

// VerifyCOSESignature checks an ES256 COSE_Sign1 signature against publicKey.
func VerifyCOSESignature(msg *cose.Sign1Message, publicKey *ecdsa.PublicKey) error {
	alg, err := msg.Headers.Protected.Algorithm()
	if err != nil {
		return fmt.Errorf("read algorithm header: %w", err)
	}
	if alg != cose.AlgorithmES256 {
		return fmt.Errorf("unexpected algorithm %v, want ES256", alg)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES256, publicKey)
	if err != nil {
		return fmt.Errorf("create verifier: %w", err)
	}
	if err := msg.Verify(nil, verifier); err != nil {
		return fmt.Errorf("COSE signature verification failed: %w", err)
	}
	return nil
}
