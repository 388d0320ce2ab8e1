package groundwater

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/hydro-assess-service/internal/domain"
)

// Defaults applied to blank optional columns.
const (
	defaultPostMonsoonDepthM = 12
	defaultPreMonsoonDepthM  = 14
	defaultAquiferType       = "Unknown"
	defaultAquiferYield      = domain.YieldModerate
)

var requiredColumns = []string{"id", "latitude", "longitude"}

// ReadStationsCSV parses a station dataset. The header row names the columns;
// id, latitude and longitude are required, and blank depth, aquifer and yield
// cells take the dataset defaults.
func ReadStationsCSV(r io.Reader) ([]domain.Station, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read station header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("station csv missing column %q", c)
		}
	}

	var stations []domain.Station
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read station row %d: %w", line, err)
		}
		st, err := parseStation(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("station row %d: %w", line, err)
		}
		stations = append(stations, st)
	}
	return stations, nil
}

func parseStation(rec []string, cols map[string]int) (domain.Station, error) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	st := domain.Station{
		ID:                   cell("id"),
		PrincipalAquiferType: orDefault(cell("principal_aquifer_type"), defaultAquiferType),
		AquiferYield:         orDefault(cell("aquifer_yield"), defaultAquiferYield),
	}
	if st.ID == "" {
		return domain.Station{}, errors.New("id is empty")
	}

	var err error
	if st.Latitude, err = parseFloat(cell("latitude"), "latitude"); err != nil {
		return domain.Station{}, err
	}
	if st.Longitude, err = parseFloat(cell("longitude"), "longitude"); err != nil {
		return domain.Station{}, err
	}
	if err := domain.ValidateCoordinates(st.Latitude, st.Longitude); err != nil {
		return domain.Station{}, err
	}
	if st.PostMonsoonDepthM, err = parseFloatOr(cell("post_monsoon_depth_m"), "post_monsoon_depth_m", defaultPostMonsoonDepthM); err != nil {
		return domain.Station{}, err
	}
	if st.PreMonsoonDepthM, err = parseFloatOr(cell("pre_monsoon_depth_m"), "pre_monsoon_depth_m", defaultPreMonsoonDepthM); err != nil {
		return domain.Station{}, err
	}
	return st, nil
}

func parseFloat(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", field, s)
	}
	return v, nil
}

func parseFloatOr(s, field string, fallback float64) (float64, error) {
	if s == "" {
		return fallback, nil
	}
	return parseFloat(s, field)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
