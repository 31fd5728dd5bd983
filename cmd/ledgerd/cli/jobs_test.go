package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/openfolio/ledgerd/testing"
)

func TestTriggerRejectsUnsupportedJob(t *testing.T) {
	cli, err := NewJobsCLI("localhost:6379")
	require.NoError(t, err)
	defer func() { _ = cli.Close() }()

	_, err = cli.Trigger(context.Background(), "authz:unknown")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported job")
}

func TestUnconfiguredCLIErrors(t *testing.T) {
	var cli *JobsCLI

	_, err := cli.Trigger(context.Background(), "authz:grant_integrity")
	require.Error(t, err)

	_, err = cli.InspectQueue(context.Background())
	require.Error(t, err)
}
