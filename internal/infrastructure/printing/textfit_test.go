package printing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFitter(t *testing.T) *TextFitter {
	t.Helper()
	f, err := NewTextFitter()
	require.NoError(t, err)
	return f
}

func TestTextFitter_FitsAtStartSize(t *testing.T) {
	f := newFitter(t)
	box := BoxMM(2, 5, 70, 20)

	p := f.Fit("Hex Bolt", box, FitOptions{Face: FontBold, StartSize: 24, Align: AlignCenter})

	assert.Equal(t, 24.0, p.FontSize)
	assert.Equal(t, 26.0, p.Leading)
	assert.Equal(t, 1, p.Attempts)
	require.Len(t, p.Lines, 1)
	assert.Equal(t, "Hex Bolt", p.Lines[0].Text)
	assert.Greater(t, p.Lines[0].Width, 0.0)
	assert.LessOrEqual(t, p.Height(), box.H)
}

func TestTextFitter_ShrinksUntilFit(t *testing.T) {
	f := newFitter(t)
	box := BoxMM(2, 5, 70, 20)
	text := "Stainless steel hexagon socket head cap screw with extra long thread"

	p := f.Fit(text, box, FitOptions{Face: FontBold, StartSize: 24})

	assert.Less(t, p.FontSize, 24.0)
	assert.GreaterOrEqual(t, p.FontSize, DefaultMinFontSize)
	assert.LessOrEqual(t, p.Height(), box.H)
	assert.Equal(t, int(24-p.FontSize)+1, p.Attempts)
	for _, line := range p.Lines {
		assert.LessOrEqual(t, line.Width, box.W)
	}
	assert.Equal(t, text, joinLines(p))

	// one point larger must not fit, otherwise the fitter shrank too far
	larger := f.wrap(text, FontBold, p.FontSize+1, box.W)
	assert.Greater(t, float64(len(larger))*(p.FontSize+1+LeadingGap), box.H)
}

func TestTextFitter_StopsAtFloor(t *testing.T) {
	f := newFitter(t)
	box := Box{W: 20, H: 10}
	text := strings.Repeat("overflowing words ", 40)

	p := f.Fit(text, box, FitOptions{StartSize: 24})

	assert.Equal(t, DefaultMinFontSize, p.FontSize)
	assert.Equal(t, 21, p.Attempts)
	assert.Greater(t, p.Height(), box.H)
	assert.NotEmpty(t, p.Lines)
}

func TestTextFitter_AttemptsBounded(t *testing.T) {
	f := newFitter(t)
	text := strings.Repeat("Kanban ", 30)

	tests := []struct {
		name  string
		start float64
		min   float64
		box   Box
	}{
		{"default floor", 24, 0, Box{W: 50, H: 5}},
		{"custom floor", 18, 8, Box{W: 50, H: 5}},
		{"fractional start", 12.5, 4, Box{W: 30, H: 8}},
		{"start below floor", 3, 4, Box{W: 30, H: 8}},
		{"roomy box", 12, 4, Box{W: 1000, H: 1000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f.Fit(text, tt.box, FitOptions{StartSize: tt.start, MinSize: tt.min})
			minSize := tt.min
			if minSize == 0 {
				minSize = DefaultMinFontSize
			}
			assert.GreaterOrEqual(t, p.FontSize, minSize)
			maxAttempts := int(tt.start-minSize) + 1
			if maxAttempts < 1 {
				maxAttempts = 1
			}
			assert.LessOrEqual(t, p.Attempts, maxAttempts)
			assert.GreaterOrEqual(t, p.Attempts, 1)
		})
	}
}

func TestTextFitter_EmptyText(t *testing.T) {
	f := newFitter(t)

	p := f.Fit("   ", BoxMM(0, 0, 70, 20), FitOptions{StartSize: 18})

	assert.Empty(t, p.Lines)
	assert.Equal(t, 1, p.Attempts)
	assert.Equal(t, 18.0, p.FontSize)

	c := &recordingCanvas{}
	require.NoError(t, p.Draw(c, BoxMM(0, 0, 70, 20)))
	assert.Empty(t, c.texts)
}

func TestTextFitter_BreaksLongWord(t *testing.T) {
	f := newFitter(t)
	word := strings.Repeat("X", 60)
	box := Box{W: 60, H: 1000}

	p := f.Fit(word, box, FitOptions{StartSize: 12})

	assert.Equal(t, 12.0, p.FontSize)
	require.Greater(t, len(p.Lines), 1)
	for _, line := range p.Lines {
		assert.LessOrEqual(t, line.Width, box.W)
		assert.NotEmpty(t, line.Text)
	}
	assert.Equal(t, word, strings.ReplaceAll(joinLines(p), " ", ""))
}

func TestTextFitter_KeepsExplicitLineBreaks(t *testing.T) {
	f := newFitter(t)

	p := f.Fit("first\nsecond\r\n\nthird", BoxMM(0, 0, 140, 80), FitOptions{StartSize: 12})

	require.Len(t, p.Lines, 3)
	assert.Equal(t, "first", p.Lines[0].Text)
	assert.Equal(t, "second", p.Lines[1].Text)
	assert.Equal(t, "third", p.Lines[2].Text)
}

func TestTextFitter_KeepsInteriorSpaces(t *testing.T) {
	f := newFitter(t)

	p := f.Fit(CaptionDateQuantity, BoxMM(76, 45, 70, 8), FitOptions{Face: FontRegular, StartSize: 12})

	require.Len(t, p.Lines, 1)
	assert.Equal(t, CaptionDateQuantity, p.Lines[0].Text)
	assert.Equal(t, 12.0, p.FontSize)

	t.Run("trims outer whitespace", func(t *testing.T) {
		p := f.Fit("  a   b  ", BoxMM(0, 0, 140, 20), FitOptions{StartSize: 12})
		require.Len(t, p.Lines, 1)
		assert.Equal(t, "a   b", p.Lines[0].Text)
	})

	t.Run("drops separator at a break", func(t *testing.T) {
		box := Box{W: f.Measure("Datum", FontRegular, 12) + 1, H: 200}
		p := f.Fit("Datum    Stk.", box, FitOptions{StartSize: 12})
		require.Len(t, p.Lines, 2)
		assert.Equal(t, "Datum", p.Lines[0].Text)
		assert.Equal(t, "Stk.", p.Lines[1].Text)
	})
}

func TestTextFitter_Measure(t *testing.T) {
	f := newFitter(t)

	small := f.Measure("Kanban", FontRegular, 10)
	large := f.Measure("Kanban", FontRegular, 20)

	assert.Greater(t, small, 0.0)
	assert.InDelta(t, small*2, large, 1)
	assert.Equal(t, 0.0, f.Measure("", FontRegular, 10))
}

func TestParagraph_Draw(t *testing.T) {
	f := newFitter(t)
	box := Box{X: 10, Y: 20, W: 200, H: 100}

	t.Run("centered", func(t *testing.T) {
		p := f.Fit("one two", box, FitOptions{Face: FontBold, StartSize: 12, Align: AlignCenter})
		c := &recordingCanvas{}
		require.NoError(t, p.Draw(c, box))

		require.Len(t, c.texts, 1)
		assert.InDelta(t, box.X+(box.W-p.Lines[0].Width)/2, c.texts[0].X, 0.001)
		assert.Equal(t, box.Y, c.texts[0].Y)
		assert.Equal(t, FontBold, c.texts[0].Face)
		assert.Equal(t, 12.0, c.texts[0].Size)
	})

	t.Run("left aligned lines use leading", func(t *testing.T) {
		p := f.Fit("one\ntwo", box, FitOptions{StartSize: 10})
		c := &recordingCanvas{}
		require.NoError(t, p.Draw(c, box))

		require.Len(t, c.texts, 2)
		assert.Equal(t, box.X, c.texts[0].X)
		assert.Equal(t, box.X, c.texts[1].X)
		assert.Equal(t, box.Y+12, c.texts[1].Y)
	})
}

func joinLines(p Paragraph) string {
	parts := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, " ")
}
