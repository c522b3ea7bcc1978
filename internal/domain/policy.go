package domain

import (
	"encoding/json"
	"fmt"
)

const policyVersion = "2012-10-17"

// PolicyDocument is an IAM policy document. Built fresh on every provision
// run and written whole — there is no diffing against what the provider
// currently holds.
type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

type PolicyStatement struct {
	Effect    string                       `json:"Effect"`
	Principal map[string]string            `json:"Principal,omitempty"`
	Action    []string                     `json:"Action"`
	Resource  []string                     `json:"Resource,omitempty"`
	Condition map[string]map[string]string `json:"Condition,omitempty"`
}

// JSON renders the document in the form the role policy service accepts.
func (d PolicyDocument) JSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal policy document: %w", err)
	}
	return string(b), nil
}

// TrustPolicy builds the role trust document: only authenticated
// identities from the given identity pool may assume the role.
func TrustPolicy(identityPoolID string) PolicyDocument {
	return PolicyDocument{
		Version: policyVersion,
		Statement: []PolicyStatement{
			{
				Effect:    "Allow",
				Principal: map[string]string{"Federated": "cognito-identity.amazonaws.com"},
				Action:    []string{"sts:AssumeRoleWithWebIdentity"},
				Condition: map[string]map[string]string{
					"StringEquals": {
						"cognito-identity.amazonaws.com:aud": identityPoolID,
					},
					"ForAnyValue:StringLike": {
						"cognito-identity.amazonaws.com:amr": "authenticated",
					},
				},
			},
		},
	}
}

// AccessPolicy builds the role permission document against the bucket.
// Read is always granted; write only when requested. All three resource
// variants are required: the wildcard covers object keys, the bare ARN
// covers bucket-level calls, and the trailing slash covers the store's
// exact-key addressing of prefix markers.
func AccessPolicy(bucket string, writeAccess bool) PolicyDocument {
	actions := []string{"s3:GetObject"}
	if writeAccess {
		actions = append(actions, "s3:PutObject")
	}
	return PolicyDocument{
		Version: policyVersion,
		Statement: []PolicyStatement{
			{
				Effect: "Allow",
				Action: actions,
				Resource: []string{
					fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
					fmt.Sprintf("arn:aws:s3:::%s", bucket),
					fmt.Sprintf("arn:aws:s3:::%s/", bucket),
				},
			},
		},
	}
}
