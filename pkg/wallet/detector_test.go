package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderDetectorProbesEveryCall(t *testing.T) {
	available := false
	detector := &ProviderDetector{
		Probe:    func(context.Context) bool { return available },
		Platform: PlatformMobile,
	}

	cap := detector.Detect(context.Background())
	assert.False(t, cap.Injected)
	assert.Equal(t, PlatformMobile, cap.Platform)

	// A provider appearing between render and submit must be picked up.
	available = true
	cap = detector.Detect(context.Background())
	assert.True(t, cap.Injected)
}

func TestProviderDetectorDefaults(t *testing.T) {
	detector := &ProviderDetector{}
	cap := detector.Detect(context.Background())
	assert.False(t, cap.Injected)
	assert.Equal(t, PlatformUnknown, cap.Platform)
}

func TestDetectorFunc(t *testing.T) {
	detector := DetectorFunc(func(context.Context) Capability {
		return Capability{Injected: true, Platform: PlatformDesktop}
	})
	cap := detector.Detect(context.Background())
	assert.True(t, cap.Injected)
}
