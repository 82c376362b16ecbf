package daemon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/username/holiday-api/internal/calendar"
)

const iconSize = 32

var (
	iconRed   = color.RGBA{R: 0xd6, G: 0x28, B: 0x28, A: 0xff}
	iconWhite = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	iconGrey  = color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}
)

// trayIcon renders a tear-off calendar page and wraps it in an ICO container
func trayIcon() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	for y := 2; y < iconSize-2; y++ {
		for x := 3; x < iconSize-3; x++ {
			c := iconWhite
			if y < 10 {
				c = iconRed
			}
			img.Set(x, y, c)
		}
	}
	// day grid
	for y := 13; y < iconSize-4; y += 5 {
		for x := 6; x < iconSize-6; x += 5 {
			img.Set(x, y, iconGrey)
			img.Set(x+1, y, iconGrey)
			img.Set(x, y+1, iconGrey)
			img.Set(x+1, y+1, iconGrey)
		}
	}

	var pngData bytes.Buffer
	if err := png.Encode(&pngData, img); err != nil {
		return nil, fmt.Errorf("failed to encode icon: %w", err)
	}

	return encodeICO(pngData.Bytes(), iconSize), nil
}

// encodeICO wraps a single PNG image in an ICO file
func encodeICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer

	// ICONDIR
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // reserved
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // type: icon
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // image count

	// ICONDIRENTRY
	buf.WriteByte(byte(size % 256)) // 0 means 256
	buf.WriteByte(byte(size % 256))
	buf.WriteByte(0) // palette size
	buf.WriteByte(0) // reserved
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // color planes
	binary.Write(&buf, binary.LittleEndian, uint16(32)) // bits per pixel
	binary.Write(&buf, binary.LittleEndian, uint32(len(pngData)))
	binary.Write(&buf, binary.LittleEndian, uint32(6+16))

	buf.Write(pngData)
	return buf.Bytes()
}

// formatDay renders a resolved day for the tray message box
func formatDay(day calendar.ResolvedDay) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Date: %s (%s)\n", day.Date, day.Weekday.EnglishName)
	if day.IsHoliday {
		b.WriteString("Day off")
	} else {
		b.WriteString("Workday")
	}
	if day.HolidayName != "" {
		fmt.Fprintf(&b, ": %s", day.HolidayName)
	}
	fmt.Fprintf(&b, "\nSource: %s\nWeek %d, Q%d", day.Source, day.ISOWeek, day.Quarter)

	return b.String()
}
