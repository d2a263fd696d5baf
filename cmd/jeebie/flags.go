package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/profile"
)

// parseAddress accepts decimal, 0x-prefixed hex or $-prefixed hex addresses.
func parseAddress(s string) (uint16, error) {
	if len(s) > 1 && s[0] == '$' {
		s = "0x" + s[1:]
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func parseAddresses(values []string) ([]uint16, error) {
	addresses := make([]uint16, 0, len(values))
	for _, s := range values {
		address, err := parseAddress(s)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, address)
	}
	return addresses, nil
}

// startProfile starts a profile of the given kind written to the current directory.
func startProfile(mode string) (interface{ Stop() }, error) {
	switch mode {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(".")), nil
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath(".")), nil
	case "block":
		return profile.Start(profile.BlockProfile, profile.ProfilePath(".")), nil
	}
	return nil, fmt.Errorf("unknown profile mode %q", mode)
}
