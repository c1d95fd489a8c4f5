package nard

import (
	"fmt"
	"slices"
	"strings"
)

// FormatBoard draws the board as two rows of twelve points, 12 to 1 on
// top and 13 to 24 below, with the off counts and pending dice on the side.
func FormatBoard(b *Board, dice []int) string {
	var glyphs, counts [4][]string
	slots := b.Slots()
	for q := 0; q < 4; q++ {
		for _, v := range slots[6*q : 6*q+6] {
			glyphs[q] = append(glyphs[q], cellGlyph(v))
			counts[q] = append(counts[q], cellCount(v))
		}
		// The top row reads right to left.
		if q < 2 {
			slices.Reverse(glyphs[q])
			slices.Reverse(counts[q])
		}
	}

	row := func(cells [4][]string, left, right int) string {
		return "||" + strings.Join(cells[left], " ") + "||" + strings.Join(cells[right], " ") + "||"
	}
	const blank = "||                 ||                 ||"

	var sb strings.Builder
	sb.WriteString("||12-11-10-9--8--7-||6--5--4--3--2--1-||\n")
	sb.WriteString(row(glyphs, 1, 0) + "\n")
	sb.WriteString(row(counts, 1, 0) + "\n")
	fmt.Fprintf(&sb, "%s White off: %d\n", blank, b.WhiteOff())
	fmt.Fprintf(&sb, "%s Black off: %d\n", blank, b.BlackOff())
	fmt.Fprintf(&sb, "%s Dice: %v\n", blank, dice)
	sb.WriteString(row(counts, 2, 3) + "\n")
	sb.WriteString(row(glyphs, 2, 3) + "\n")
	sb.WriteString("||13-14-15-16-17-18||19-20-21-22-23-24||\n")
	return sb.String()
}

func cellGlyph(v int) string {
	switch {
	case v > 0:
		return "o "
	case v < 0:
		return "x "
	default:
		return "  "
	}
}

func cellCount(v int) string {
	if v < 0 {
		v = -v
	}
	switch {
	case v > 9:
		return fmt.Sprintf("%d", v)
	case v > 1:
		return fmt.Sprintf("%d ", v)
	default:
		return "  "
	}
}
