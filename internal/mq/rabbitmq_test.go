package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryQueueDeadLettersIntoTasks(t *testing.T) {
	require.Len(t, topology, 3)
	var retry *binding
	for i := range topology {
		if topology[i].queue == QueueRetry {
			retry = &topology[i]
		}
	}
	require.NotNil(t, retry)
	assert.Equal(t, ExchangeRetry, retry.exchange)
	assert.Equal(t, ExchangeTasks, retry.args["x-dead-letter-exchange"])
	assert.Equal(t, RoutingTask, retry.args["x-dead-letter-routing-key"])
}

func TestCloseNilClient(t *testing.T) {
	var c *Client
	assert.NotPanics(t, func() { c.Close() })
}
