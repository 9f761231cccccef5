package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// Sha256String hashes and encodes in hex the result
func Sha256String(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// RandHex returns size random bytes encoded in hex
func RandHex(size int) string {
	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// Round rounds to the given number of decimals
func Round(f float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(f*p) / p
}

// ParseLatLng parses "lat,lng". Zero coordinates are rejected.
func ParseLatLng(in string) (lat, lng float64, ok bool) {
	parts := strings.Split(in, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil || lat == 0 || lng == 0 {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}

func StringToUInt64(in string) (uint64, bool) {
	i, err := strconv.ParseUint(in, 10, 64)
	return i, err == nil && i > 0
}

// SplitList splits a comma-separated list, trimming and dropping empty items
func SplitList(in string) (result []string) {
	for _, s := range strings.Split(in, ",") {
		if s = strings.TrimSpace(s); s != "" {
			result = append(result, s)
		}
	}
	return
}
