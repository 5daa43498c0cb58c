package smartaws

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/pkg/errors"
)

// Makes these easier to mock and unit test
var kmsNew = kms.New
var kmssvcSign = (*kms.KMS).Sign

// KMSSigner signs assertion inputs with an asymmetric customer managed key.
// The message goes over as RAW and KMS computes the SHA-384 digest itself.
// Faults from KMS (unreachable, key not authorized, malformed input) are
// wrapped and propagated; the enclosing authentication attempt fails with
// them, there is no local retry.
type KMSSigner struct {
	svc   *kms.KMS
	keyID string
}

func NewKMSSigner(s *session.Session, keyID string) *KMSSigner {
	return &KMSSigner{svc: kmsNew(s), keyID: keyID}
}

// Sign returns the raw RSASSA-PKCS1-v1_5 SHA-384 signature over message.
func (s *KMSSigner) Sign(message []byte) ([]byte, error) {
	out, err := kmssvcSign(s.svc, &kms.SignInput{
		KeyId:            aws.String(s.keyID),
		Message:          message,
		MessageType:      aws.String(kms.MessageTypeRaw),
		SigningAlgorithm: aws.String(kms.SigningAlgorithmSpecRsassaPkcs1V15Sha384),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error signing assertion with key %s", s.keyID)
	}

	return out.Signature, nil
}
