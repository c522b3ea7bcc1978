// Package awsiam implements the role policy port against AWS IAM.
package awsiam

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/smithy-go"

	"github.com/fomomon/admin/internal/domain"
)

// Roles implements application.RolePolicy.
type Roles struct {
	client *iam.Client
}

// NewRoles creates a Roles using the given IAM client.
func NewRoles(client *iam.Client) *Roles {
	return &Roles{client: client}
}

// FindRole resolves a role name to its ARN. Role names are unique within
// an account, so a direct get stands in for a listing scan.
func (r *Roles) FindRole(ctx context.Context, name string) (string, bool, error) {
	out, err := r.client.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(name)})
	if err != nil {
		err = classify("get role", err)
		if errors.Is(err, domain.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return aws.ToString(out.Role.Arn), true, nil
}

func (r *Roles) CreateRole(ctx context.Context, name, trustJSON string) (string, error) {
	out, err := r.client.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(name),
		AssumeRolePolicyDocument: aws.String(trustJSON),
	})
	if err != nil {
		return "", classify("create role", err)
	}
	return aws.ToString(out.Role.Arn), nil
}

func (r *Roles) PutRolePolicy(ctx context.Context, roleName, policyName, policyJSON string) error {
	_, err := r.client.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       aws.String(roleName),
		PolicyName:     aws.String(policyName),
		PolicyDocument: aws.String(policyJSON),
	})
	if err != nil {
		return classify("put role policy", err)
	}
	return nil
}

func classify(op string, err error) error {
	var noEntity *types.NoSuchEntityException
	if errors.As(err, &noEntity) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var exists *types.EntityAlreadyExistsException
	if errors.As(err, &exists) {
		return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &domain.RejectedError{Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage()}
	}
	return &domain.UnavailableError{Op: op, Err: err}
}
