package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/cascade/internal/utils"
)

func TestCommandContextAccessorRoundTrips(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, runAvailable := accessor.RunIdentifier(context.Background())
	require.False(testInstance, runAvailable)

	executionContext := accessor.WithRunIdentifier(context.Background(), "run-1")
	runIdentifier, runAvailable := accessor.RunIdentifier(executionContext)
	require.True(testInstance, runAvailable)
	require.Equal(testInstance, "run-1", runIdentifier)

	emptyRunContext := accessor.WithRunIdentifier(context.Background(), "")
	_, emptyRunAvailable := accessor.RunIdentifier(emptyRunContext)
	require.False(testInstance, emptyRunAvailable)
}
