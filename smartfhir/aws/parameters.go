package smartaws

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
)

// Makes this easier to mock and unit test
var ssmNew = ssm.New
var ssmsvcGetParameter = (*ssm.SSM).GetParameter

// GetParameter retrieves a decrypted value from the SSM Parameter Store.
// Client ids and key references are provisioned there rather than baked into
// the deployment package.
func GetParameter(s *session.Session, keyname string) (string, error) {
	ssmsvc := ssmNew(s)

	withDecryption := true
	result, err := ssmsvcGetParameter(ssmsvc, &ssm.GetParameterInput{
		Name:           &keyname,
		WithDecryption: &withDecryption,
	})

	if err != nil {
		return "", fmt.Errorf("error retrieving parameter %s from parameter store: %w", keyname, err)
	}

	val := *result.Parameter.Value

	if val == "" {
		return "", fmt.Errorf("no parameter store value found for %s", keyname)
	}

	return val, nil
}
