// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// RuleType identifies the type of detection rule.
type RuleType string

const (
	// RuleTypeImpossibleTravel detects implausible geographic transitions.
	RuleTypeImpossibleTravel RuleType = "impossible_travel"

	// RuleTypeSimultaneousLocations flags one account streaming from
	// distant locations at the same time.
	RuleTypeSimultaneousLocations RuleType = "simultaneous_locations"

	// RuleTypeDeviceVelocity flags accounts cycling through many IPs.
	RuleTypeDeviceVelocity RuleType = "device_velocity"

	// RuleTypeConcurrentStreams enforces per-user stream limits.
	RuleTypeConcurrentStreams RuleType = "concurrent_streams"

	// RuleTypeGeoRestriction blocks or allows streaming by country.
	RuleTypeGeoRestriction RuleType = "geo_restriction"
)

// KnownRuleTypes lists every rule type the engine can evaluate, in a
// stable order.
var KnownRuleTypes = []RuleType{
	RuleTypeImpossibleTravel,
	RuleTypeSimultaneousLocations,
	RuleTypeDeviceVelocity,
	RuleTypeConcurrentStreams,
	RuleTypeGeoRestriction,
}

// GeoRestrictionMode selects blocklist or allowlist semantics.
type GeoRestrictionMode string

const (
	GeoRestrictionBlocklist GeoRestrictionMode = "blocklist"
	GeoRestrictionAllowlist GeoRestrictionMode = "allowlist"
)

// Rule is a configured detection policy. Params is decoded and validated
// once at configuration time, so evaluation never parses JSON.
type Rule struct {
	ID   string   `json:"id"`
	Type RuleType `json:"type"`

	// ServerUserID scopes the rule to one user. Nil means the rule
	// applies to every user on the account.
	ServerUserID *string `json:"serverUserId,omitempty"`

	IsActive bool       `json:"isActive"`
	Params   RuleParams `json:"params"`
}

// RuleParams is the closed set of per-type parameter structs.
type RuleParams interface {
	ruleParams()
}

// ImpossibleTravelParams configures the impossible_travel rule.
type ImpossibleTravelParams struct {
	// MaxSpeedKmh is the highest plausible travel speed between two
	// session locations.
	MaxSpeedKmh float64 `json:"maxSpeedKmh" koanf:"maxSpeedKmh" validate:"gt=0"`

	ExcludePrivateIPs bool `json:"excludePrivateIps" koanf:"excludePrivateIps"`

	// IgnoreVPNRanges skips sessions whose IP falls in a known VPN range.
	IgnoreVPNRanges bool `json:"ignoreVpnRanges" koanf:"ignoreVpnRanges"`
}

func (ImpossibleTravelParams) ruleParams() {}

// SimultaneousLocationsParams configures the simultaneous_locations rule.
type SimultaneousLocationsParams struct {
	MinDistanceKm     float64 `json:"minDistanceKm" koanf:"minDistanceKm" validate:"gt=0"`
	ExcludePrivateIPs bool    `json:"excludePrivateIps" koanf:"excludePrivateIps"`
}

func (SimultaneousLocationsParams) ruleParams() {}

// DeviceVelocityParams configures the device_velocity rule.
type DeviceVelocityParams struct {
	MaxIPs            int  `json:"maxIps" koanf:"maxIps" validate:"gt=0"`
	WindowHours       int  `json:"windowHours" koanf:"windowHours" validate:"gt=0"`
	ExcludePrivateIPs bool `json:"excludePrivateIps" koanf:"excludePrivateIps"`
}

func (DeviceVelocityParams) ruleParams() {}

// ConcurrentStreamsParams configures the concurrent_streams rule.
type ConcurrentStreamsParams struct {
	MaxStreams        int  `json:"maxStreams" koanf:"maxStreams" validate:"gt=0"`
	ExcludePrivateIPs bool `json:"excludePrivateIps" koanf:"excludePrivateIps"`
}

func (ConcurrentStreamsParams) ruleParams() {}

// GeoRestrictionParams configures the geo_restriction rule.
// Countries holds ISO-3166 alpha-2 codes, normalized to upper case at
// decode time.
type GeoRestrictionParams struct {
	Mode      GeoRestrictionMode `json:"mode" koanf:"mode" validate:"oneof=blocklist allowlist"`
	Countries []string           `json:"countries" koanf:"countries" validate:"required,min=1,dive,len=2"`
}

func (GeoRestrictionParams) ruleParams() {}

// Defaults per rule type. These match the product's shipped rule presets.

func DefaultImpossibleTravelParams() ImpossibleTravelParams {
	return ImpossibleTravelParams{MaxSpeedKmh: 500}
}

func DefaultSimultaneousLocationsParams() SimultaneousLocationsParams {
	return SimultaneousLocationsParams{MinDistanceKm: 100}
}

func DefaultDeviceVelocityParams() DeviceVelocityParams {
	return DeviceVelocityParams{MaxIPs: 5, WindowHours: 24}
}

func DefaultConcurrentStreamsParams() ConcurrentStreamsParams {
	return ConcurrentStreamsParams{MaxStreams: 3}
}

func DefaultGeoRestrictionParams() GeoRestrictionParams {
	return GeoRestrictionParams{Mode: GeoRestrictionBlocklist}
}

// ErrUnknownRuleType is returned by DecodeRuleParams for rule types the
// engine has no evaluator for.
var ErrUnknownRuleType = fmt.Errorf("unknown rule type")

var paramsValidator = validator.New(validator.WithRequiredStructEnabled())

// DecodeRuleParams decodes a raw JSON parameter object into the concrete
// struct for ruleType, applying defaults for absent fields and validating
// the result. This runs once when a rule is configured, never on the
// evaluation hot path.
func DecodeRuleParams(ruleType RuleType, raw json.RawMessage) (RuleParams, error) {
	var (
		params RuleParams
		err    error
	)

	switch ruleType {
	case RuleTypeImpossibleTravel:
		p := DefaultImpossibleTravelParams()
		err = unmarshalParams(raw, &p)
		params = p
	case RuleTypeSimultaneousLocations:
		p := DefaultSimultaneousLocationsParams()
		err = unmarshalParams(raw, &p)
		params = p
	case RuleTypeDeviceVelocity:
		p := DefaultDeviceVelocityParams()
		err = unmarshalParams(raw, &p)
		params = p
	case RuleTypeConcurrentStreams:
		p := DefaultConcurrentStreamsParams()
		err = unmarshalParams(raw, &p)
		params = p
	case RuleTypeGeoRestriction:
		p := DefaultGeoRestrictionParams()
		err = unmarshalParams(raw, &p)
		for i, c := range p.Countries {
			p.Countries[i] = strings.ToUpper(c)
		}
		params = p
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownRuleType, ruleType)
	}

	if err != nil {
		return nil, fmt.Errorf("decoding %s params: %w", ruleType, err)
	}
	if err := paramsValidator.Struct(params); err != nil {
		return nil, fmt.Errorf("validating %s params: %w", ruleType, err)
	}

	return params, nil
}

func unmarshalParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
