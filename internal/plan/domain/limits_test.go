package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestDecodeLimits(t *testing.T) {
	var raw datatypes.JSONMap
	require.NoError(t, json.Unmarshal([]byte(`{"max_fanflets":20,"ratio":1.5,"label":"x","max_resources_per_fanflet":50}`), &raw))

	assert.Equal(t, map[string]int64{"max_fanflets": 20, "max_resources_per_fanflet": 50}, DecodeLimits(raw))

	empty := DecodeLimits(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	assert.Equal(t, map[string]int64{"n": 7}, DecodeLimits(datatypes.JSONMap{"n": json.Number("7"), "bad": json.Number("7.5")}))
}

func TestEncodeLimits(t *testing.T) {
	out, err := EncodeLimits(map[string]int64{" Max_Fanflets ": 3})
	require.NoError(t, err)
	assert.Equal(t, datatypes.JSONMap{"max_fanflets": int64(3)}, out)

	_, err = EncodeLimits(map[string]int64{"max fanflets": 3})
	assert.ErrorIs(t, err, ErrInvalidLimitName)

	_, err = EncodeLimits(map[string]int64{"max_fanflets": -1})
	assert.ErrorIs(t, err, ErrInvalidLimitValue)
}
