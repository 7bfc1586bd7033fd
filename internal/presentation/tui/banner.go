package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the v2df banner to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`        ____     _  __ `, "#818cf8"},
		{` __   _|___ \ __| |/ _|`, "#a78bfa"},
		{` \ \ / / __) / _' | |_ `, "#c084fc"},
		{`  \ V / / __/ (_| |  _|`, "#e879f9"},
		{`   \_/ |_____\__,_|_|  `, "#f472b6"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("   video to density functions "+version).Faint())
	fmt.Fprintln(w)
}
