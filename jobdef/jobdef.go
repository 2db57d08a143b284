// Package jobdef types the subset of the AWS Batch job-definition schema
// used by the deployment templates and converts it to register calls.
package jobdef

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	batchtypes "github.com/aws/aws-sdk-go-v2/service/batch/types"
)

const typeContainer = "container"

var (
	ErrMissingName         = errors.New("job definition name is required")
	ErrUnsupportedType     = errors.New("job definition type must be container")
	ErrMissingContainer    = errors.New("container properties are required")
	ErrMissingImage        = errors.New("container image is required")
	ErrMissingVcpus        = errors.New("container vcpus must be positive")
	ErrMissingMemory       = errors.New("container memory must be positive")
	ErrNonPositiveAttempts = errors.New("retry attempts must be positive")
	ErrNonPositiveTimeout  = errors.New("attempt duration must be positive")
)

type KeyValuePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ResourceRequirement struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type ContainerProperties struct {
	Image                string                `json:"image"`
	Vcpus                int32                 `json:"vcpus,omitempty"`
	Memory               int32                 `json:"memory,omitempty"`
	Command              []string              `json:"command,omitempty"`
	JobRoleArn           string                `json:"jobRoleArn,omitempty"`
	ExecutionRoleArn     string                `json:"executionRoleArn,omitempty"`
	Environment          []KeyValuePair        `json:"environment,omitempty"`
	ResourceRequirements []ResourceRequirement `json:"resourceRequirements,omitempty"`
}

type RetryStrategy struct {
	Attempts int32 `json:"attempts"`
}

type Timeout struct {
	AttemptDurationSeconds int32 `json:"attemptDurationSeconds"`
}

type Definition struct {
	JobDefinitionName    string               `json:"jobDefinitionName"`
	Type                 string               `json:"type"`
	Parameters           map[string]string    `json:"parameters,omitempty"`
	ContainerProperties  *ContainerProperties `json:"containerProperties"`
	RetryStrategy        *RetryStrategy       `json:"retryStrategy,omitempty"`
	Timeout              *Timeout             `json:"timeout,omitempty"`
	PlatformCapabilities []string             `json:"platformCapabilities,omitempty"`
	Tags                 map[string]string    `json:"tags,omitempty"`
}

// Parse decodes a rendered job-definition document. Unknown fields are
// rejected so schema drift in a template fails before it reaches the API.
func Parse(data []byte) (Definition, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var d Definition
	if err := dec.Decode(&d); err != nil {
		return Definition{}, fmt.Errorf("failed to parse job definition: %w", err)
	}

	return d, nil
}

func (d Definition) Validate() error {
	if d.JobDefinitionName == "" {
		return ErrMissingName
	}
	if d.Type != typeContainer {
		return fmt.Errorf("%w, got %q", ErrUnsupportedType, d.Type)
	}
	if d.ContainerProperties == nil {
		return ErrMissingContainer
	}

	cp := d.ContainerProperties
	if cp.Image == "" {
		return ErrMissingImage
	}
	if cp.Vcpus <= 0 && !cp.hasRequirement("VCPU") {
		return ErrMissingVcpus
	}
	if cp.Memory <= 0 && !cp.hasRequirement("MEMORY") {
		return ErrMissingMemory
	}

	if d.RetryStrategy != nil && d.RetryStrategy.Attempts <= 0 {
		return ErrNonPositiveAttempts
	}
	if d.Timeout != nil && d.Timeout.AttemptDurationSeconds <= 0 {
		return ErrNonPositiveTimeout
	}

	return nil
}

func (cp *ContainerProperties) hasRequirement(kind string) bool {
	for _, r := range cp.ResourceRequirements {
		if r.Type == kind && r.Value != "" {
			return true
		}
	}

	return false
}

// ToRegisterInput maps the definition onto the Batch register call.
func (d Definition) ToRegisterInput() *batch.RegisterJobDefinitionInput {
	in := &batch.RegisterJobDefinitionInput{
		JobDefinitionName: aws.String(d.JobDefinitionName),
		Type:              batchtypes.JobDefinitionType(d.Type),
	}

	if len(d.Parameters) > 0 {
		in.Parameters = d.Parameters
	}
	if len(d.Tags) > 0 {
		in.Tags = d.Tags
	}
	for _, c := range d.PlatformCapabilities {
		in.PlatformCapabilities = append(in.PlatformCapabilities, batchtypes.PlatformCapability(c))
	}

	if cp := d.ContainerProperties; cp != nil {
		props := &batchtypes.ContainerProperties{
			Image:   aws.String(cp.Image),
			Command: cp.Command,
		}
		if cp.Vcpus > 0 {
			props.Vcpus = aws.Int32(cp.Vcpus)
		}
		if cp.Memory > 0 {
			props.Memory = aws.Int32(cp.Memory)
		}
		if cp.JobRoleArn != "" {
			props.JobRoleArn = aws.String(cp.JobRoleArn)
		}
		if cp.ExecutionRoleArn != "" {
			props.ExecutionRoleArn = aws.String(cp.ExecutionRoleArn)
		}
		for _, kv := range cp.Environment {
			props.Environment = append(props.Environment, batchtypes.KeyValuePair{
				Name:  aws.String(kv.Name),
				Value: aws.String(kv.Value),
			})
		}
		for _, rr := range cp.ResourceRequirements {
			props.ResourceRequirements = append(props.ResourceRequirements, batchtypes.ResourceRequirement{
				Type:  batchtypes.ResourceType(rr.Type),
				Value: aws.String(rr.Value),
			})
		}
		in.ContainerProperties = props
	}

	if d.RetryStrategy != nil {
		in.RetryStrategy = &batchtypes.RetryStrategy{
			Attempts: aws.Int32(d.RetryStrategy.Attempts),
		}
	}
	if d.Timeout != nil {
		in.Timeout = &batchtypes.JobTimeout{
			AttemptDurationSeconds: aws.Int32(d.Timeout.AttemptDurationSeconds),
		}
	}

	return in
}
