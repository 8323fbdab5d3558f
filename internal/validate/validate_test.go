package validate

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWellFormedContent(t *testing.T) {
	cases := map[string]string{
		"minimal": "lat,lon\n52.1,4.3\n52.2,4.4\n",
		"with time column": "time,lat,lon\n" +
			"2024-05-01 10:00:00,52.1,4.3\n" +
			"2024-05-01 10:10:00,52.2,4.4\n",
		"numbered variables": "lat,lon,air_pressure_1,air_temperature_1,relative_humidity_1\n" +
			"52.1,4.3,1013.2,15.4,87.0\n" +
			"52.2,4.4,1012.9,15.1,88.5\n",
		"wind columns": "lat,lon,wind_direction_1,wind_speed_1,wind_direction_2,wind_speed_2\n" +
			"52.1,4.3,180,5.2,190,6.1\n",
		"trailing categoricals": "lat,lon,air_temperature_1,cloud_cover,visibility,precipitation\n" +
			"52.1,4.3,15.4,8,10000,0\n" +
			"52.2,4.4,15.1,7,9000,1\n",
		"max numbered suffix": "lat,lon,air_pressure_200\n52.1,4.3,1013.2\n",
		"negative coordinates": "lat,lon\n-33.9,-70.6\n-34.0,-70.7\n",
		"header only":          "lat,lon\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			v := Validate(content)
			assert.True(t, v.Valid, "errors: %v", v.Errors)
			assert.Empty(t, v.Errors)
		})
	}
}

func TestValidateEmptyFile(t *testing.T) {
	for name, content := range map[string]string{
		"empty":           "",
		"whitespace only": "  \n\t\n \n",
	} {
		t.Run(name, func(t *testing.T) {
			v := Validate(content)
			assert.False(t, v.Valid)
			require.Len(t, v.Errors, 1)
			assert.Equal(t, KindEmptyFile, v.Errors[0].Kind)
		})
	}
}

func TestValidateInvalidHeader(t *testing.T) {
	cases := map[string]string{
		"missing lat lon":          "air_pressure_1,air_temperature_1\n1013.2,15.4\n",
		"lon before lat":           "lon,lat\n4.3,52.1\n",
		"unknown column":           "lat,lon,humidity\n52.1,4.3,88\n",
		"unnumbered variable":      "lat,lon,air_pressure\n52.1,4.3,1013.2\n",
		"suffix zero":              "lat,lon,air_pressure_0\n52.1,4.3,1013.2\n",
		"suffix over 200":          "lat,lon,air_pressure_201\n52.1,4.3,1013.2\n",
		"categorical before numeric": "lat,lon,cloud_cover,air_pressure_1\n" +
			"52.1,4.3,8,1013.2\n",
		"five categoricals": "lat,lon,cloud_cover,cloud_base,visibility,precipitation,cloud_cover\n" +
			"52.1,4.3,8,1200,10000,0,8\n",
		"time not leading": "lat,lon,time\n52.1,4.3,2024-05-01 10:00:00\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			v := Validate(content)
			assert.False(t, v.Valid)
			require.Len(t, v.Errors, 1)
			assert.Equal(t, KindInvalidHeader, v.Errors[0].Kind)
		})
	}
}

func TestValidateInvalidHeaderShortCircuits(t *testing.T) {
	// Malformed data rows must not add further reasons once the header fails.
	v := Validate("bogus,header\nnot,numeric,either\n")

	assert.False(t, v.Valid)
	require.Len(t, v.Errors, 1)
	assert.Equal(t, KindInvalidHeader, v.Errors[0].Kind)
}

func TestValidateInvalidData(t *testing.T) {
	cases := map[string]string{
		"malformed second row": "lat,lon\nnot-a-number,4.3\n52.2,4.4\n",
		"malformed last row":   "lat,lon\n52.1,4.3\n52.2,4.4\n52.3,oops\n",
		"single decimal field": "lat,lon\n52.1\n",
		"bad timestamp":        "time,lat,lon\n2024-5-1 10:00,52.1,4.3\n",
		"empty field":          "lat,lon\n52.1,\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			v := Validate(content)
			assert.False(t, v.Valid)
			require.Len(t, v.Errors, 1)
			assert.Equal(t, KindInvalidData, v.Errors[0].Kind)
		})
	}
}

func TestValidateSamplesOnlySecondAndLastRow(t *testing.T) {
	// A malformed row in the middle is deliberately not inspected; the
	// validator is a cheap shape-check, not a full scan.
	content := "lat,lon\n52.1,4.3\ngarbage row\n52.2,4.4\n"

	v := Validate(content)
	assert.True(t, v.Valid, "errors: %v", v.Errors)
}

func TestValidateTwoLineFile(t *testing.T) {
	v := Validate("lat,lon\n52.1,4.3\n")
	assert.True(t, v.Valid)

	v = Validate("lat,lon\nnope\n")
	assert.False(t, v.Valid)
	require.Len(t, v.Errors, 1)
	assert.Equal(t, KindInvalidData, v.Errors[0].Kind)
}

func TestHeaderPatternClauses(t *testing.T) {
	re := regexp.MustCompile(HeaderPattern)

	assert.True(t, re.MatchString("lat,lon"))
	assert.True(t, re.MatchString("time,lat,lon"))
	assert.True(t, re.MatchString("lat,lon,wind_speed_1"))
	assert.True(t, re.MatchString("lat,lon,precipitation"))
	assert.False(t, re.MatchString("time,lon,lat"))
	assert.False(t, re.MatchString("lat,lon,"))
	assert.False(t, re.MatchString(""))

	// Numbered suffix bounds: 1-200 inclusive.
	assert.True(t, re.MatchString("lat,lon,relative_humidity_1"))
	assert.True(t, re.MatchString("lat,lon,relative_humidity_99"))
	assert.True(t, re.MatchString("lat,lon,relative_humidity_100"))
	assert.True(t, re.MatchString("lat,lon,relative_humidity_199"))
	assert.True(t, re.MatchString("lat,lon,relative_humidity_200"))
	assert.False(t, re.MatchString("lat,lon,relative_humidity_0"))
	assert.False(t, re.MatchString("lat,lon,relative_humidity_201"))
	assert.False(t, re.MatchString("lat,lon,relative_humidity_1000"))
}

func TestRowPatternClauses(t *testing.T) {
	re := regexp.MustCompile(RowPattern)

	assert.True(t, re.MatchString("52.1,4.3"))
	assert.True(t, re.MatchString("52,4"))
	assert.True(t, re.MatchString("-52.1,-4.3,1013.2"))
	assert.True(t, re.MatchString("2024-05-01 10:00:00,52.1,4.3"))
	assert.True(t, re.MatchString("2024-05-01 10:00:00,52.1,4.3,1013.2,15.4"))
	assert.False(t, re.MatchString("52.1"))
	assert.False(t, re.MatchString("2024-05-01 10:00:00"))
	assert.False(t, re.MatchString("52.1,abc"))
	assert.False(t, re.MatchString("52.1,4.3,"))
	assert.False(t, re.MatchString("52.1;4.3"))
}

func TestValidateLargeSampleIsCheap(t *testing.T) {
	var b strings.Builder
	b.WriteString("lat,lon\n")
	for i := 0; i < 5000; i++ {
		b.WriteString("52.1,4.3\n")
	}

	v := Validate(b.String())
	assert.True(t, v.Valid)
}
