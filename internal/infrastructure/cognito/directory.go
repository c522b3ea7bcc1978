// Package cognito implements the identity directory and federated
// identity ports against Amazon Cognito.
package cognito

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	"github.com/fomomon/admin/internal/domain"
)

const pageSize = 60

// requiredAuthFlows is the auth flow set every app client must carry.
// Re-asserted on pre-existing clients during provisioning.
var requiredAuthFlows = []types.ExplicitAuthFlowsType{
	types.ExplicitAuthFlowsTypeAllowUserPasswordAuth,
	types.ExplicitAuthFlowsTypeAllowUserSrpAuth,
	types.ExplicitAuthFlowsTypeAllowRefreshTokenAuth,
}

// Directory implements application.IdentityDirectory on top of the
// Cognito user pools API.
type Directory struct {
	client *cognitoidentityprovider.Client
}

// NewDirectory creates a Directory using the given Cognito IDP client.
func NewDirectory(client *cognitoidentityprovider.Client) *Directory {
	return &Directory{client: client}
}

func (d *Directory) FindUserPool(ctx context.Context, name string) (string, bool, error) {
	var next *string
	for {
		out, err := d.client.ListUserPools(ctx, &cognitoidentityprovider.ListUserPoolsInput{
			MaxResults: aws.Int32(pageSize),
			NextToken:  next,
		})
		if err != nil {
			return "", false, classify("list user pools", err)
		}
		for _, pool := range out.UserPools {
			if aws.ToString(pool.Name) == name {
				return aws.ToString(pool.Id), true, nil
			}
		}
		if out.NextToken == nil {
			return "", false, nil
		}
		next = out.NextToken
	}
}

func (d *Directory) CreateUserPool(ctx context.Context, name string) (string, error) {
	out, err := d.client.CreateUserPool(ctx, &cognitoidentityprovider.CreateUserPoolInput{
		PoolName: aws.String(name),
	})
	if err != nil {
		return "", classify("create user pool", err)
	}
	return aws.ToString(out.UserPool.Id), nil
}

func (d *Directory) FindClient(ctx context.Context, poolID, name string) (string, bool, error) {
	var next *string
	for {
		out, err := d.client.ListUserPoolClients(ctx, &cognitoidentityprovider.ListUserPoolClientsInput{
			UserPoolId: aws.String(poolID),
			MaxResults: aws.Int32(pageSize),
			NextToken:  next,
		})
		if err != nil {
			return "", false, classify("list user pool clients", err)
		}
		for _, c := range out.UserPoolClients {
			if aws.ToString(c.ClientName) == name {
				return aws.ToString(c.ClientId), true, nil
			}
		}
		if out.NextToken == nil {
			return "", false, nil
		}
		next = out.NextToken
	}
}

func (d *Directory) CreateClient(ctx context.Context, poolID, name string) (string, error) {
	out, err := d.client.CreateUserPoolClient(ctx, &cognitoidentityprovider.CreateUserPoolClientInput{
		UserPoolId:        aws.String(poolID),
		ClientName:        aws.String(name),
		GenerateSecret:    false,
		ExplicitAuthFlows: requiredAuthFlows,
	})
	if err != nil {
		return "", classify("create user pool client", err)
	}
	return aws.ToString(out.UserPoolClient.ClientId), nil
}

func (d *Directory) SetClientAuthFlows(ctx context.Context, poolID, clientID string) error {
	_, err := d.client.UpdateUserPoolClient(ctx, &cognitoidentityprovider.UpdateUserPoolClientInput{
		UserPoolId:        aws.String(poolID),
		ClientId:          aws.String(clientID),
		ExplicitAuthFlows: requiredAuthFlows,
	})
	if err != nil {
		return classify("update user pool client", err)
	}
	return nil
}

func (d *Directory) ListUsers(ctx context.Context, poolID string) ([]domain.DirectoryUser, error) {
	var users []domain.DirectoryUser
	var token *string
	for {
		out, err := d.client.ListUsers(ctx, &cognitoidentityprovider.ListUsersInput{
			UserPoolId:      aws.String(poolID),
			PaginationToken: token,
		})
		if err != nil {
			return nil, classify("list users", err)
		}
		for _, u := range out.Users {
			attrs := make(map[string]string, len(u.Attributes))
			for _, a := range u.Attributes {
				attrs[aws.ToString(a.Name)] = aws.ToString(a.Value)
			}
			users = append(users, domain.DirectoryUser{
				Username:          aws.ToString(u.Username),
				Email:             attrs["email"],
				Name:              attrs["name"],
				PreferredUsername: attrs["preferred_username"],
				Status:            string(u.UserStatus),
				Enabled:           u.Enabled,
			})
		}
		if out.PaginationToken == nil {
			return users, nil
		}
		token = out.PaginationToken
	}
}

func (d *Directory) CreateUser(ctx context.Context, poolID, username, name, email, password string) error {
	_, err := d.client.AdminCreateUser(ctx, &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId:        aws.String(poolID),
		Username:          aws.String(username),
		TemporaryPassword: aws.String(password),
		MessageAction:     types.MessageActionTypeSuppress,
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("name"), Value: aws.String(name)},
			{Name: aws.String("preferred_username"), Value: aws.String(username)},
		},
	})
	if err != nil {
		return classify("create user", err)
	}
	// Promote the temporary password so no forced-reset state is left
	// pending.
	return d.SetPassword(ctx, poolID, username, password)
}

func (d *Directory) SetPassword(ctx context.Context, poolID, username, password string) error {
	_, err := d.client.AdminSetUserPassword(ctx, &cognitoidentityprovider.AdminSetUserPasswordInput{
		UserPoolId: aws.String(poolID),
		Username:   aws.String(username),
		Password:   aws.String(password),
		Permanent:  true,
	})
	if err != nil {
		return classify("set password", err)
	}
	return nil
}

func (d *Directory) DeleteUser(ctx context.Context, poolID, username string) error {
	_, err := d.client.AdminDeleteUser(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
		UserPoolId: aws.String(poolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return classify("delete user", err)
	}
	return nil
}

func (d *Directory) PasswordPolicy(ctx context.Context, poolID string) (domain.PasswordPolicy, error) {
	out, err := d.client.DescribeUserPool(ctx, &cognitoidentityprovider.DescribeUserPoolInput{
		UserPoolId: aws.String(poolID),
	})
	if err != nil {
		return domain.PasswordPolicy{}, classify("describe user pool", err)
	}
	if out.UserPool == nil || out.UserPool.Policies == nil || out.UserPool.Policies.PasswordPolicy == nil {
		return domain.PasswordPolicy{}, nil
	}
	p := out.UserPool.Policies.PasswordPolicy
	return domain.PasswordPolicy{
		MinimumLength:    int(aws.ToInt32(p.MinimumLength)),
		RequireUppercase: p.RequireUppercase,
		RequireLowercase: p.RequireLowercase,
		RequireNumbers:   p.RequireNumbers,
		RequireSymbols:   p.RequireSymbols,
	}, nil
}

// classify maps Cognito IDP errors onto the domain taxonomy. Duplicate
// usernames and missing entries become control signals; every other API
// rejection keeps its provider code and message verbatim.
func classify(op string, err error) error {
	var exists *types.UsernameExistsException
	if errors.As(err, &exists) {
		return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
	}
	var noUser *types.UserNotFoundException
	if errors.As(err, &noUser) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var noResource *types.ResourceNotFoundException
	if errors.As(err, &noResource) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &domain.RejectedError{Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage()}
	}
	return &domain.UnavailableError{Op: op, Err: err}
}
