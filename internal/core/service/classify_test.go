package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

func TestClassifyFailure(t *testing.T) {
	patterns := DefaultConfig().NetworkErrorPatterns

	tests := []struct {
		errText string
		want    interfaces.ReconnectionReason
	}{
		{"dial tcp: network is unreachable", interfaces.ReasonTransportDisconnected},
		{"read: connection reset by peer", interfaces.ReasonTransportDisconnected},
		{"write: broken pipe", interfaces.ReasonTransportDisconnected},
		{"i/o timeout", interfaces.ReasonTransportDisconnected},
		{"DNS resolution failed", interfaces.ReasonTransportDisconnected},
		{"401 Unauthorized", interfaces.ReasonAuthFailed},
		{"407 Proxy Authentication Required", interfaces.ReasonAuthFailed},
		{"authentication rejected", interfaces.ReasonAuthFailed},
		{"registration expired", interfaces.ReasonRegistrationExpired},
		{"503 Service Unavailable", interfaces.ReasonServerError},
		{"500 Server Internal Error", interfaces.ReasonServerError},
		{"400 Bad Request", interfaces.ReasonRegistrationFailed},
		{"", interfaces.ReasonRegistrationFailed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyFailure(tt.errText, patterns), "errText=%q", tt.errText)
	}
}

func TestIsNetworkError(t *testing.T) {
	patterns := DefaultConfig().NetworkErrorPatterns

	assert.True(t, isNetworkError("No Route To Host", patterns)) // 大小写不敏感
	assert.True(t, isNetworkError("socket closed", patterns))
	assert.False(t, isNetworkError("486 Busy Here", patterns))
	assert.False(t, isNetworkError("", patterns))
}
