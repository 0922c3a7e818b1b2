// Package numbering mints product references and EAN-13 barcodes.
package numbering

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	ProductPrefix = '1'
	LinkedPrefix  = '2'
	ReferenceTag  = "P"
)

// CheckDigit computes the EAN-13 check digit of a 12 digit payload: digits at
// odd positions weigh 1, even positions weigh 3.
func CheckDigit(payload string) (int, error) {
	if len(payload) != 12 {
		return 0, fmt.Errorf("ean-13 payload must have 12 digits, got %d", len(payload))
	}
	sum := 0
	for i, r := range payload {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("ean-13 payload %q is not numeric", payload)
		}
		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10, nil
}

// Valid reports whether code is a 13 digit EAN with a correct check digit.
func Valid(code string) bool {
	if len(code) != 13 {
		return false
	}
	check, err := CheckDigit(code[:12])
	if err != nil {
		return false
	}
	return int(code[12]-'0') == check
}

func Barcode(prefix byte, n int) string {
	payload := fmt.Sprintf("%c%011d", prefix, n)
	check, _ := CheckDigit(payload)
	return payload + strconv.Itoa(check)
}

func ProductBarcode(n int) string { return Barcode(ProductPrefix, n) }

func LinkedBarcode(n int) string { return Barcode(LinkedPrefix, n) }

func Reference(n int) string {
	return ReferenceTag + strconv.Itoa(n)
}

// ParseReference extracts n from a P<n> reference.
func ParseReference(ref string) (int, bool) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, ReferenceTag) {
		return 0, false
	}
	n, err := strconv.Atoi(ref[len(ReferenceTag):])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ParseBarcode extracts n from a 13 digit code minted with prefix.
func ParseBarcode(code string, prefix byte) (int, bool) {
	code = strings.TrimSpace(code)
	if len(code) != 13 || code[0] != prefix || !Valid(code) {
		return 0, false
	}
	n, err := strconv.Atoi(code[1:12])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// LowestFree returns the smallest positive integer not in used.
func LowestFree(used map[int]struct{}) int {
	n := 1
	for {
		if _, taken := used[n]; !taken {
			return n
		}
		n++
	}
}

// NextProductNumber returns the lowest n free both as a P<n> reference and as
// a primary barcode among the given codes.
func NextProductNumber(references []string, barcodes []string) int {
	used := make(map[int]struct{}, len(references)+len(barcodes))
	for _, ref := range references {
		if n, ok := ParseReference(ref); ok {
			used[n] = struct{}{}
		}
	}
	for _, code := range barcodes {
		if n, ok := ParseBarcode(code, ProductPrefix); ok {
			used[n] = struct{}{}
		}
	}
	return LowestFree(used)
}

// NextLinkedNumber applies the lowest-free rule to linked barcodes only.
func NextLinkedNumber(linked []string) int {
	used := make(map[int]struct{}, len(linked))
	for _, code := range linked {
		if n, ok := ParseBarcode(code, LinkedPrefix); ok {
			used[n] = struct{}{}
		}
	}
	return LowestFree(used)
}
