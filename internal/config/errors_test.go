package config

import (
	"errors"
	"testing"
)

func TestConfigErrorsAreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrNoHiddenServiceDir,
		ErrNoDataDir,
		ErrNoTargets,
		ErrInvalidTarget,
		ErrInvalidTimeout,
		ErrInvalidFriendServerConfig,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %d unexpectedly matches sentinel %d", i, j)
			}
		}
	}
}
