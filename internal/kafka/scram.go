package kafka

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
)

// Ensure implementation satisfies interface at compile time.
var _ sarama.SCRAMClient = (*scramClient)(nil)

// scramClient adapts an xdg-go/scram conversation to sarama.SCRAMClient.
type scramClient struct {
	hash         scram.HashGeneratorFcn
	conversation *scram.ClientConversation
}

// Begin starts a conversation for the given credentials.
func (c *scramClient) Begin(userName, password, authzID string) error {
	client, err := c.hash.NewClient(userName, password, authzID)
	if err != nil {
		return fmt.Errorf("failed to create scram client: %w", err)
	}
	c.conversation = client.NewConversation()
	return nil
}

// Step answers one server challenge.
func (c *scramClient) Step(challenge string) (string, error) {
	if c.conversation == nil {
		return "", fmt.Errorf("scram conversation not started")
	}
	return c.conversation.Step(challenge)
}

// Done reports whether the conversation has completed.
func (c *scramClient) Done() bool {
	return c.conversation != nil && c.conversation.Done()
}

// scramClientGenerator returns a sarama client factory for mechanism.
func scramClientGenerator(mechanism string) (func() sarama.SCRAMClient, error) {
	var hash scram.HashGeneratorFcn
	switch mechanism {
	case MechanismSCRAMSHA256:
		hash = sha256.New
	case MechanismSCRAMSHA512:
		hash = sha512.New
	default:
		return nil, fmt.Errorf("unsupported SCRAM mechanism: %s", mechanism)
	}

	return func() sarama.SCRAMClient {
		return &scramClient{hash: hash}
	}, nil
}
