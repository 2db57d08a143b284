package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/batch"
)

// BatchAPI is the slice of the Batch client used by this package.
type BatchAPI interface {
	RegisterJobDefinition(ctx context.Context, params *batch.RegisterJobDefinitionInput, optFns ...func(*batch.Options)) (*batch.RegisterJobDefinitionOutput, error)
	SubmitJob(ctx context.Context, params *batch.SubmitJobInput, optFns ...func(*batch.Options)) (*batch.SubmitJobOutput, error)
}

// RegisterResult identifies a registered job-definition revision.
type RegisterResult struct {
	Name     string `json:"name"`
	Revision int32  `json:"revision"`
	ARN      string `json:"arn"`
}

// SubmitResult identifies a submitted job.
type SubmitResult struct {
	JobID   string `json:"job_id"`
	JobName string `json:"job_name"`
	ARN     string `json:"arn,omitempty"`
}

// Registrar registers job definitions with the batch control plane.
type Registrar interface {
	RegisterJobDefinition(ctx context.Context, input *batch.RegisterJobDefinitionInput) (RegisterResult, error)
}

// Submitter submits jobs against a registered definition.
type Submitter interface {
	SubmitJob(ctx context.Context, input *batch.SubmitJobInput) (SubmitResult, error)
}

// BatchService combines registration and submission.
type BatchService interface {
	Registrar
	Submitter
}

type batchClient struct {
	api BatchAPI
}

func NewBatchClient(api BatchAPI) BatchService {
	return &batchClient{api: api}
}

func (c *batchClient) RegisterJobDefinition(ctx context.Context, input *batch.RegisterJobDefinitionInput) (RegisterResult, error) {
	out, err := c.api.RegisterJobDefinition(ctx, input)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("failed to register job definition: %w", err)
	}

	return RegisterResult{
		Name:     aws.ToString(out.JobDefinitionName),
		Revision: aws.ToInt32(out.Revision),
		ARN:      aws.ToString(out.JobDefinitionArn),
	}, nil
}

func (c *batchClient) SubmitJob(ctx context.Context, input *batch.SubmitJobInput) (SubmitResult, error) {
	out, err := c.api.SubmitJob(ctx, input)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to submit job: %w", err)
	}

	return SubmitResult{
		JobID:   aws.ToString(out.JobId),
		JobName: aws.ToString(out.JobName),
		ARN:     aws.ToString(out.JobArn),
	}, nil
}
