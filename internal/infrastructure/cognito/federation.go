package cognito

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity/types"
	"github.com/aws/smithy-go"

	"github.com/fomomon/admin/internal/domain"
)

// Federation implements application.FederatedIdentity on top of the
// Cognito identity pools API.
type Federation struct {
	client *cognitoidentity.Client
}

// NewFederation creates a Federation using the given Cognito identity client.
func NewFederation(client *cognitoidentity.Client) *Federation {
	return &Federation{client: client}
}

func (f *Federation) FindIdentityPool(ctx context.Context, name string) (string, bool, error) {
	var next *string
	for {
		out, err := f.client.ListIdentityPools(ctx, &cognitoidentity.ListIdentityPoolsInput{
			MaxResults: aws.Int32(pageSize),
			NextToken:  next,
		})
		if err != nil {
			return "", false, classifyFederation("list identity pools", err)
		}
		for _, pool := range out.IdentityPools {
			if aws.ToString(pool.IdentityPoolName) == name {
				return aws.ToString(pool.IdentityPoolId), true, nil
			}
		}
		if out.NextToken == nil {
			return "", false, nil
		}
		next = out.NextToken
	}
}

func (f *Federation) CreateIdentityPool(ctx context.Context, name, providerName, clientID string) (string, error) {
	out, err := f.client.CreateIdentityPool(ctx, &cognitoidentity.CreateIdentityPoolInput{
		IdentityPoolName:               aws.String(name),
		AllowUnauthenticatedIdentities: false,
		CognitoIdentityProviders: []types.CognitoIdentityProvider{
			{
				ProviderName: aws.String(providerName),
				ClientId:     aws.String(clientID),
			},
		},
	})
	if err != nil {
		return "", classifyFederation("create identity pool", err)
	}
	return aws.ToString(out.IdentityPoolId), nil
}

func (f *Federation) SetAuthenticatedRole(ctx context.Context, poolID, roleARN string) error {
	_, err := f.client.SetIdentityPoolRoles(ctx, &cognitoidentity.SetIdentityPoolRolesInput{
		IdentityPoolId: aws.String(poolID),
		Roles:          map[string]string{"authenticated": roleARN},
	})
	if err != nil {
		return classifyFederation("set identity pool roles", err)
	}
	return nil
}

func classifyFederation(op string, err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return domain.ErrNotFound
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &domain.RejectedError{Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage()}
	}
	return &domain.UnavailableError{Op: op, Err: err}
}
