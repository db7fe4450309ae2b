package scsi

import (
	"bytes"
	"testing"
)

func TestBuildInquiry(t *testing.T) {
	testCases := []struct {
		Description string
		VPD         bool
		Page        byte
		Length      uint16
		Expect      []byte
	}{
		{
			Description: "standard inquiry",
			VPD:         false,
			Page:        0x00,
			Length:      44,
			Expect:      []byte{0x12, 0x00, 0x00, 0x00, 0x2C, 0x00},
		},
		{
			Description: "power condition VPD page",
			VPD:         true,
			Page:        VPDPagePowerCondition,
			Length:      18,
			Expect:      []byte{0x12, 0x01, 0x8A, 0x00, 0x12, 0x00},
		},
		{
			Description: "length crossing the high byte",
			VPD:         true,
			Page:        0x00,
			Length:      0x0123,
			Expect:      []byte{0x12, 0x01, 0x00, 0x01, 0x23, 0x00},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Description, func(t *testing.T) {
			cdb := BuildInquiry(testCase.VPD, testCase.Page, testCase.Length)
			if !bytes.Equal(cdb, testCase.Expect) {
				t.Fatalf("unexpected CDB % X, want % X", cdb, testCase.Expect)
			}
		})
	}
}

func TestBuildLogSense(t *testing.T) {
	cdb := BuildLogSense(LogPageProtocolSpecific, 0x00, 0xD8)
	expect := []byte{0x4D, 0x00, 0x58, 0x00, 0x00, 0x00, 0x00, 0x00, 0xD8, 0x00}
	if !bytes.Equal(cdb, expect) {
		t.Fatalf("unexpected CDB % X, want % X", cdb, expect)
	}
}

func TestBuildModeSense(t *testing.T) {
	testCases := []struct {
		Description string
		PageControl byte
		Expect      []byte
	}{
		{
			Description: "current values",
			PageControl: PageControlCurrent,
			Expect:      []byte{0x1A, 0x00, 0x1A, 0x00, 0x26, 0x00},
		},
		{
			Description: "saved values set the high page bits",
			PageControl: PageControlSaved,
			Expect:      []byte{0x1A, 0x00, 0xDA, 0x00, 0x26, 0x00},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Description, func(t *testing.T) {
			cdb := BuildModeSense(testCase.PageControl, ModePagePowerCondition, 0x00, 0x26)
			if !bytes.Equal(cdb, testCase.Expect) {
				t.Fatalf("unexpected CDB % X, want % X", cdb, testCase.Expect)
			}
		})
	}
}

func TestBuildStartStopUnit(t *testing.T) {
	testCases := []struct {
		Description string
		PowerCond   byte
		Modifier    byte
		Expect      []byte
	}{
		{
			Description: "idle_a",
			PowerCond:   0x2,
			Modifier:    0x0,
			Expect:      []byte{0x1B, 0x00, 0x00, 0x00, 0x20, 0x00},
		},
		{
			Description: "idle_c carries the modifier in byte 3",
			PowerCond:   0x2,
			Modifier:    0x2,
			Expect:      []byte{0x1B, 0x00, 0x00, 0x02, 0x20, 0x00},
		},
		{
			Description: "forced standby_y",
			PowerCond:   0xB,
			Modifier:    0x1,
			Expect:      []byte{0x1B, 0x00, 0x00, 0x01, 0xB0, 0x00},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Description, func(t *testing.T) {
			cdb := BuildStartStopUnit(testCase.PowerCond, testCase.Modifier)
			if !bytes.Equal(cdb, testCase.Expect) {
				t.Fatalf("unexpected CDB % X, want % X", cdb, testCase.Expect)
			}
		})
	}
}

func TestBuildRequestSense(t *testing.T) {
	cdb := BuildRequestSense()
	expect := []byte{0x03, 0x00, 0x00, 0x00, 0x20, 0x00}
	if !bytes.Equal(cdb, expect) {
		t.Fatalf("unexpected CDB % X, want % X", cdb, expect)
	}
}
