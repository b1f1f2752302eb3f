package cassandra

import (
	"strings"

	"github.com/gocql/gocql"
	"github.com/pseudomuto/phalanx/pkg/errs"
)

var consistencies = map[string]gocql.Consistency{
	"any":          gocql.Any,
	"one":          gocql.One,
	"two":          gocql.Two,
	"three":        gocql.Three,
	"quorum":       gocql.Quorum,
	"all":          gocql.All,
	"local_quorum": gocql.LocalQuorum,
	"each_quorum":  gocql.EachQuorum,
	"local_one":    gocql.LocalOne,
	"serial":       gocql.Consistency(gocql.Serial),
	"local_serial": gocql.Consistency(gocql.LocalSerial),
}

// ParseConsistency maps a configuration string such as "quorum" or "serial" to
// a consistency level. Matching is case-insensitive.
func ParseConsistency(s string) (gocql.Consistency, error) {
	c, ok := consistencies[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, errs.New(errs.InvalidConfig, "consistency %q is invalid", s)
	}

	return c, nil
}

// ConsistencyName returns the configuration name of c, the inverse of
// ParseConsistency.
func ConsistencyName(c gocql.Consistency) string {
	for name, v := range consistencies {
		if v == c {
			return name
		}
	}

	return c.String()
}
