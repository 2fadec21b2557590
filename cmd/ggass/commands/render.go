package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gogpu/ggass"
	"github.com/gogpu/ggass/composite"
)

func render(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	timeFlag, _ := flags.GetString("time")
	width, _ := flags.GetInt("width")
	height, _ := flags.GetInt("height")
	out, _ := flags.GetString("out")
	sprites, _ := flags.GetBool("sprites")

	if width == 0 {
		width = cfgLoaded.Render.Width
	}
	if height == 0 {
		height = cfgLoaded.Render.Height
	}
	if err := cfgLoaded.Render.CheckFrameSize(width, height); err != nil {
		return err
	}
	tMs, err := parseTimestamp(timeFlag)
	if err != nil {
		return err
	}

	format := cfgLoaded.Render.Format
	if out != "" {
		if format, err = composite.ParseFormat(out); err != nil {
			return err
		}
	} else if !sprites {
		return errors.New("--out or --sprites is required")
	}

	track, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("unable to read '%s': %w", args[0], err)
	}

	e, err := ggass.Create(cfgLoaded.EngineOptions()...)
	if err != nil {
		return err
	}
	defer e.Destroy()

	if err := e.SetFrameSize(width, height); err != nil {
		return err
	}
	if err := e.SetTrack(track); err != nil {
		return err
	}

	var f ggass.Frame
	if err := e.RenderAt(tMs, &f); err != nil {
		return err
	}
	defer ggass.FreeFrame(&f)

	if sprites {
		printSprites(cmd.OutOrStdout(), &f)
	}
	if out == "" {
		return nil
	}
	if f.Empty() {
		ggass.Logger().Info("no subtitles visible", "t", tMs)
	}
	return writeFile(out, func(w *os.File) error {
		return composite.Encode(w, composite.Render(&f, width, height), format)
	})
}

func printSprites(w io.Writer, f *ggass.Frame) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tx\ty\tw\th\tstride\tcolor\toffset\t")
	for i, s := range f.Sprites {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%08X\t%d\t\n",
			i, s.X, s.Y, s.W, s.H, s.Stride, s.Color, s.Offset)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d sprites, %d bitmap bytes\n", len(f.Sprites), len(f.Bitmaps))
}
