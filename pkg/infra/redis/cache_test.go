package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Key(t *testing.T) {
	params := Params{
		MinSupport:       2.0,
		MinConfidence:    50.0,
		MaxItemsetLength: 3,
		UserID:           7,
		Category:         "Home Decor",
		Limit:            10,
	}

	key := params.Key("category")

	assert.Equal(t, "reco:category:s2:c50:l3:u7:cat:Home_Decor:n10", key)
}

func TestParams_Key_EveryParameterChangesKey(t *testing.T) {
	base := Params{
		MinSupport:       2.0,
		MinConfidence:    50.0,
		MaxItemsetLength: 3,
		UserID:           7,
		Category:         "Books",
		Limit:            10,
	}

	variants := []Params{
		{MinSupport: 3.0, MinConfidence: 50.0, MaxItemsetLength: 3, UserID: 7, Category: "Books", Limit: 10},
		{MinSupport: 2.0, MinConfidence: 60.0, MaxItemsetLength: 3, UserID: 7, Category: "Books", Limit: 10},
		{MinSupport: 2.0, MinConfidence: 50.0, MaxItemsetLength: 4, UserID: 7, Category: "Books", Limit: 10},
		{MinSupport: 2.0, MinConfidence: 50.0, MaxItemsetLength: 3, UserID: 8, Category: "Books", Limit: 10},
		{MinSupport: 2.0, MinConfidence: 50.0, MaxItemsetLength: 3, UserID: 7, Category: "Toys", Limit: 10},
		{MinSupport: 2.0, MinConfidence: 50.0, MaxItemsetLength: 3, UserID: 7, Category: "Books", Limit: 20},
	}

	baseKey := base.Key("general")
	for i, v := range variants {
		assert.NotEqual(t, baseKey, v.Key("general"), "variant %d must produce a distinct key", i)
	}

	// kind 也参与键
	assert.NotEqual(t, baseKey, base.Key("rules"))
}

func TestRecommendationPattern(t *testing.T) {
	assert.Equal(t, "reco:*", RecommendationPattern())
}
