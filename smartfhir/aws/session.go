package smartaws

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials/stscreds"
	"github.com/aws/aws-sdk-go/aws/session"
)

var awsRegion = "us-east-1"

// Makes these easily mockable for testing
var newSession = session.NewSession

// NewSession
// Returns a new AWS session using the given roleArn
func NewSession(roleArn, endpoint string) (*session.Session, error) {
	sess := session.Must(session.NewSession())
	var err error

	config := aws.Config{
		Region: aws.String(awsRegion),
	}

	if endpoint != "" {
		config.Endpoint = &endpoint
	}

	if roleArn != "" {
		config.Credentials = stscreds.NewCredentials(
			sess,
			roleArn,
		)
	}

	sess, err = newSession(&config)

	if err != nil {
		return nil, err
	}

	return sess, nil
}
