package dynamo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrKey(t *testing.T) {
	k := strKey("phoneNumber", "+15550001")
	require.Len(t, k, 1)
	s, ok := k["phoneNumber"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "+15550001", s.Value)
}

func TestIsConditionFailed(t *testing.T) {
	wrapped := fmt.Errorf("put: %w", &types.ConditionalCheckFailedException{})
	assert.True(t, isConditionFailed(wrapped))
	assert.False(t, isConditionFailed(errors.New("throttled")))
	assert.False(t, isConditionFailed(nil))
}
