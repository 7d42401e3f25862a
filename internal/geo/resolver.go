// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// cgnatRange is the carrier-grade NAT range (RFC 6598). net.IP.IsPrivate
// does not cover it, but sessions sourced from CGNAT addresses have no
// meaningful public location.
var cgnatRange = mustParseCIDR("100.64.0.0/10")

func mustParseCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return n
}

// IsPrivateIP reports whether ip belongs to a range for which public
// geolocation is unavailable: RFC1918/ULA, loopback, link-local, CGNAT,
// and unspecified addresses.
func IsPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return ip.IsPrivate() ||
		ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified() ||
		cgnatRange.Contains(ip)
}

// Location is the result of resolving one IP address.
type Location struct {
	City    string
	Region  string
	Country string
	Lat     *float64
	Lon     *float64
	Kind    models.LocationKind
}

// Resolver maps IP addresses to locations using a MaxMind City database.
// It is the single upstream step that classifies LocationKind; everything
// downstream reads the classification instead of re-deriving it.
type Resolver struct {
	reader *geoip2.Reader
}

// OpenResolver opens the MaxMind database at path.
func OpenResolver(path string) (*Resolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening geoip database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

// Close releases the underlying database.
func (r *Resolver) Close() error {
	if r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

// Resolve returns the location for ipAddress. Private and carrier-NAT
// addresses resolve to the private kind with the legacy sentinel country
// and no coordinates; addresses missing from the database resolve to
// unresolved.
func (r *Resolver) Resolve(ipAddress string) (Location, error) {
	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return Location{Kind: models.LocationKindUnresolved}, fmt.Errorf("invalid ip address: %q", ipAddress)
	}

	if IsPrivateIP(ip) {
		return Location{
			Country: models.LocalNetworkSentinel,
			Kind:    models.LocationKindPrivate,
		}, nil
	}

	record, err := r.reader.City(ip)
	if err != nil {
		return Location{Kind: models.LocationKindUnresolved}, fmt.Errorf("geoip lookup for %s: %w", ipAddress, err)
	}
	if record == nil || record.Country.IsoCode == "" {
		return Location{Kind: models.LocationKindUnresolved}, nil
	}

	loc := Location{
		City:    record.City.Names["en"],
		Country: record.Country.IsoCode,
		Kind:    models.LocationKindPublic,
	}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	lat := record.Location.Latitude
	lon := record.Location.Longitude
	loc.Lat = &lat
	loc.Lon = &lon

	return loc, nil
}

// Annotate fills the session's geo fields from its IP address when the
// producer did not classify them. Already-classified sessions are left
// untouched so producer-supplied data stays authoritative.
func (r *Resolver) Annotate(s *models.Session) {
	if s == nil || s.IPAddress == "" {
		return
	}
	if s.LocationKind != "" || s.GeoCountry != "" {
		return
	}

	loc, err := r.Resolve(s.IPAddress)
	if err != nil {
		s.LocationKind = models.LocationKindUnresolved
		return
	}

	s.GeoCity = loc.City
	s.GeoRegion = loc.Region
	s.GeoCountry = loc.Country
	s.GeoLat = loc.Lat
	s.GeoLon = loc.Lon
	s.LocationKind = loc.Kind
}
