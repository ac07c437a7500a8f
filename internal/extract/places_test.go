package extract

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geofusion/internal/model"
)

const nominatimJerusalem = `[
	{
		"place_id": 1,
		"lat": "31.7788242",
		"lon": "35.2257626",
		"class": "boundary",
		"type": "administrative",
		"addresstype": "city",
		"name": "ירושלים",
		"display_name": "Jerusalem, Jerusalem District, Israel",
		"importance": 0.8042,
		"boundingbox": ["31.7096", "31.8826", "35.1024", "35.2632"]
	},
	{
		"lat": "not-a-number",
		"lon": "35.0",
		"name": "Jerusalem Forest",
		"importance": "0.3"
	}
]`

func TestNominatimMapper_Map(t *testing.T) {
	sec := NominatimMapper{}.Map(context.Background(), json.RawMessage(nominatimJerusalem))

	require.Equal(t, model.StatusOK, sec.Status)
	require.Len(t, sec.Candidates, 2)

	c := sec.Candidates[0]
	assert.Equal(t, 0, c.Index)
	assert.InDelta(t, 31.7788242, *c.Lat, 1e-9)
	assert.InDelta(t, 35.2257626, *c.Lon, 1e-9)
	assert.Equal(t, "Jerusalem, Jerusalem District, Israel", c.DisplayName)
	assert.InDelta(t, 0.8042, *c.Importance, 1e-9)
	assert.Equal(t, []string{"31.7096", "31.8826", "35.1024", "35.2632"}, c.BoundingBox)
	assert.Equal(t, "city", c.AddressType)
	assert.Equal(t, "ירושלים", c.Name)
	assert.Equal(t, "boundary", c.Class)
	assert.Equal(t, "administrative", c.Type)
	assert.Nil(t, c.Aliases)

	// A bad latitude clears both coordinates but keeps the record.
	bad := sec.Candidates[1]
	assert.Equal(t, 1, bad.Index)
	assert.False(t, bad.HasCoords())
	assert.False(t, bad.HalfCoords())
	assert.Equal(t, "Jerusalem Forest", bad.DisplayName)
	assert.InDelta(t, 0.3, *bad.Importance, 1e-9)
}

func TestNominatimMapper_Sentinels(t *testing.T) {
	ctx := context.Background()
	m := NominatimMapper{}

	assert.Equal(t, model.StatusNoResult, m.Map(ctx, json.RawMessage(`[]`)).Status)

	failed := m.Map(ctx, json.RawMessage(`{"error":"Failed to fetch Nominatim data"}`))
	assert.Equal(t, model.StatusError, failed.Status)
	assert.Equal(t, "Failed to fetch Nominatim data", failed.Error)

	apiErr := m.Map(ctx, json.RawMessage(`{"error":{"code":400,"message":"Nothing to search for."}}`))
	assert.Equal(t, model.StatusError, apiErr.Status)
	assert.Equal(t, "Nothing to search for.", apiErr.Error)

	obj := m.Map(ctx, json.RawMessage(`{"unexpected":true}`))
	assert.Equal(t, model.StatusError, obj.Status)

	assert.Equal(t, model.StatusError, m.Map(ctx, json.RawMessage(`<html>`)).Status)
}

func TestNominatimMapper_SkipsMalformedRecord(t *testing.T) {
	raw := `[42, {"lat":"32.1","lon":"34.8","boundingbox":"oops"}, {"lat":"32.08","lon":"34.78","importance":0.7}]`

	sec := NominatimMapper{}.Map(context.Background(), json.RawMessage(raw))

	require.Len(t, sec.Candidates, 1)
	assert.Equal(t, 2, sec.Candidates[0].Index)
	assert.Equal(t, model.UnknownName, sec.Candidates[0].DisplayName)
}

func TestLocationIQMapper_Map(t *testing.T) {
	raw := `[{"lat":"31.25","lon":"34.79","display_name":"Beersheba, Israel","class":"place","type":"city","importance":0.65,"boundingbox":["31.1","31.3","34.7","34.9"]}]`

	sec := LocationIQMapper{}.Map(context.Background(), json.RawMessage(raw))

	require.Equal(t, model.StatusOK, sec.Status)
	require.Len(t, sec.Candidates, 1)
	c := sec.Candidates[0]
	assert.Equal(t, "Beersheba, Israel", c.DisplayName)
	assert.Equal(t, "place", c.Class)
	assert.Equal(t, "city", c.Type)
	assert.InDelta(t, 0.65, *c.Importance, 1e-9)
}

func TestLocationIQMapper_UnableToGeocodeIsNoResult(t *testing.T) {
	ctx := context.Background()
	m := LocationIQMapper{}

	assert.Equal(t, model.StatusNoResult, m.Map(ctx, json.RawMessage(`{"error":"Unable to geocode"}`)).Status)

	invalid := m.Map(ctx, json.RawMessage(`{"error":"Invalid key"}`))
	assert.Equal(t, model.StatusError, invalid.Status)
	assert.Equal(t, "Invalid key", invalid.Error)
}

func TestStringList(t *testing.T) {
	items := []json.RawMessage{
		json.RawMessage(`"31.1"`),
		json.RawMessage(`31.2`),
		json.RawMessage(`null`),
		json.RawMessage(`""`),
	}
	assert.Equal(t, []string{"31.1", "31.2"}, stringList(items))
	assert.Nil(t, stringList(nil))
}
