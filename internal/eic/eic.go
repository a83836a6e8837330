// Package eic pushes a temporary SSH public key to an EC2 instance through
// EC2 Instance Connect so a following key-based login is accepted.
package eic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2instanceconnect"
	"github.com/aws/smithy-go"
	"github.com/go-logr/logr"
	"golang.org/x/crypto/ssh"
)

// API is the subset of the EC2 Instance Connect client used here.
type API interface {
	SendSSHPublicKey(ctx context.Context, params *ec2instanceconnect.SendSSHPublicKeyInput, optFns ...func(*ec2instanceconnect.Options)) (*ec2instanceconnect.SendSSHPublicKeyOutput, error)
}

// KeyPusher sends public keys to instances.
type KeyPusher struct {
	client API
	log    logr.Logger
}

// NewKeyPusher returns a KeyPusher that sends keys through client and logs
// its outcome to log.
func NewKeyPusher(client API, log logr.Logger) *KeyPusher {
	return &KeyPusher{client: client, log: log}
}

// NewFromConfig builds a KeyPusher from the default AWS configuration chain.
// An empty region leaves region resolution to the environment.
func NewFromConfig(ctx context.Context, region string, log logr.Logger) (*KeyPusher, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("reading AWS configuration: %w", err)
	}
	return NewKeyPusher(ec2instanceconnect.NewFromConfig(cfg), log), nil
}

// Push authorizes key for osUser on instanceID. The key stays valid for about
// 60 seconds, so the SSH login must follow promptly.
func (p *KeyPusher) Push(ctx context.Context, instanceID, osUser string, key ssh.PublicKey, availabilityZone string) error {
	if strings.TrimSpace(instanceID) == "" {
		return errors.New("instance id is required")
	}
	if strings.TrimSpace(osUser) == "" {
		return errors.New("os user is required")
	}
	if key == nil {
		return errors.New("public key is required")
	}

	in := &ec2instanceconnect.SendSSHPublicKeyInput{
		InstanceId:     aws.String(instanceID),
		InstanceOSUser: aws.String(osUser),
		SSHPublicKey:   aws.String(strings.TrimSpace(string(ssh.MarshalAuthorizedKey(key)))),
	}
	if availabilityZone != "" {
		in.AvailabilityZone = aws.String(availabilityZone)
	}

	out, err := p.client.SendSSHPublicKey(ctx, in)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			p.log.Info("EC2 Instance Connect rejected key", "instanceID", instanceID, "code", apiErr.ErrorCode())
		}
		return fmt.Errorf("sending SSH public key to %s: %w", instanceID, err)
	}
	if !out.Success {
		return fmt.Errorf("sending SSH public key to %s: request %s was not successful", instanceID, aws.ToString(out.RequestId))
	}
	p.log.V(1).Info("pushed SSH public key", "instanceID", instanceID, "user", osUser, "requestID", aws.ToString(out.RequestId))
	return nil
}
