package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureSecurity(t *testing.T) {
	tests := []struct {
		name          string
		sec           SecurityConfig
		wantSASL      bool
		wantTLS       bool
		wantMechanism sarama.SASLMechanism
		wantErr       bool
	}{
		{name: "empty is plaintext", sec: SecurityConfig{}},
		{name: "plaintext", sec: SecurityConfig{Protocol: ProtocolPlaintext}},
		{name: "ssl", sec: SecurityConfig{Protocol: ProtocolSSL}, wantTLS: true},
		{
			name:          "sasl plain",
			sec:           SecurityConfig{Protocol: ProtocolSASLPlaintext, SASLMechanism: MechanismPlain, SASLUsername: "u", SASLPassword: "p"},
			wantSASL:      true,
			wantMechanism: sarama.SASLTypePlaintext,
		},
		{
			name:          "sasl ssl scram 512",
			sec:           SecurityConfig{Protocol: ProtocolSASLSSL, SASLMechanism: MechanismSCRAMSHA512, SASLUsername: "u", SASLPassword: "p"},
			wantSASL:      true,
			wantTLS:       true,
			wantMechanism: sarama.SASLTypeSCRAMSHA512,
		},
		{
			name:          "msk iam",
			sec:           SecurityConfig{Protocol: ProtocolSASLSSL, SASLMechanism: MechanismAWSMSKIAM},
			wantSASL:      true,
			wantTLS:       true,
			wantMechanism: sarama.SASLTypeOAuth,
		},
		{name: "unknown protocol", sec: SecurityConfig{Protocol: "TLS"}, wantErr: true},
		{name: "unknown mechanism", sec: SecurityConfig{Protocol: ProtocolSASLSSL, SASLMechanism: "GSSAPI"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := sarama.NewConfig()
			err := configureSecurity(config, tt.sec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSASL, config.Net.SASL.Enable)
			assert.Equal(t, tt.wantTLS, config.Net.TLS.Enable)
			if tt.wantSASL {
				assert.Equal(t, tt.wantMechanism, config.Net.SASL.Mechanism)
			}
		})
	}
}

func TestConfigureSecurity_TLSVerification(t *testing.T) {
	config := sarama.NewConfig()
	require.NoError(t, configureSecurity(config, SecurityConfig{Protocol: ProtocolSSL}))
	assert.False(t, config.Net.TLS.Config.InsecureSkipVerify)

	config = sarama.NewConfig()
	require.NoError(t, configureSecurity(config, SecurityConfig{Protocol: ProtocolSSL, TLSInsecureSkipVerify: true}))
	assert.True(t, config.Net.TLS.Config.InsecureSkipVerify)
}

func TestConfigureSecurity_MSKRegion(t *testing.T) {
	config := sarama.NewConfig()
	require.NoError(t, configureSecurity(config, SecurityConfig{
		Protocol:      ProtocolSASLSSL,
		SASLMechanism: MechanismAWSMSKIAM,
		MSKRegion:     "eu-west-1",
	}))

	provider, ok := config.Net.SASL.TokenProvider.(*MSKAccessTokenProvider)
	require.True(t, ok)
	assert.Equal(t, "eu-west-1", provider.region)

	config = sarama.NewConfig()
	require.NoError(t, configureSecurity(config, SecurityConfig{Protocol: ProtocolSASLSSL, SASLMechanism: MechanismAWSMSKIAM}))
	assert.Equal(t, defaultMSKRegion, config.Net.SASL.TokenProvider.(*MSKAccessTokenProvider).region)
}
