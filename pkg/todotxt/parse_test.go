package todotxt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) Date {
	return Date{Year: y, Month: m, Day: d}
}

func TestParseLine(t *testing.T) {
	t.Run("Open With Priority And Date", func(t *testing.T) {
		rec, err := ParseLine("(A) 2024-01-01 Fix bug +proj id:42")
		require.NoError(t, err)

		assert.False(t, rec.Done)
		assert.Equal(t, Priority('A'), rec.Priority)
		assert.Equal(t, date(2024, time.January, 1), rec.Created)
		assert.True(t, rec.Completed.IsZero())
		assert.Equal(t, "Fix bug +proj id:42", rec.Description)
		assert.Equal(t, "42", rec.ExternalID("id"))
		assert.True(t, rec.HasProject("proj"))
		assert.False(t, rec.Opaque())
	})

	t.Run("Done With Both Dates", func(t *testing.T) {
		rec, err := ParseLine("x 2024-06-01 2024-01-01 Fix bug +proj id:42")
		require.NoError(t, err)

		assert.True(t, rec.Done)
		assert.Equal(t, date(2024, time.June, 1), rec.Completed)
		assert.Equal(t, date(2024, time.January, 1), rec.Created)
		assert.Equal(t, "Fix bug +proj id:42", rec.Description)
	})

	t.Run("Done With Single Date Is Completion", func(t *testing.T) {
		rec, err := ParseLine("x 2024-06-01 Call mom @phone")
		require.NoError(t, err)

		assert.Equal(t, date(2024, time.June, 1), rec.Completed)
		assert.True(t, rec.Created.IsZero())
		assert.True(t, rec.HasContext("phone"))
	})

	t.Run("Priority On Done Is Tolerated", func(t *testing.T) {
		rec, err := ParseLine("x (B) 2024-06-01 Old habit")
		require.NoError(t, err)
		assert.True(t, rec.Done)
		assert.Equal(t, Priority('B'), rec.Priority)
	})

	t.Run("Plain Description", func(t *testing.T) {
		rec, err := ParseLine("Write spec id:7")
		require.NoError(t, err)
		assert.Equal(t, "Write spec id:7", rec.Description)
		assert.Equal(t, "7", rec.ExternalID("id"))
		assert.Equal(t, "", rec.ExternalID("gtask"))
	})

	t.Run("Escaped Tokens Are Not Structure", func(t *testing.T) {
		rec, err := ParseLine(`\x marks the spot`)
		require.NoError(t, err)
		assert.False(t, rec.Done)
		assert.Equal(t, `\x marks the spot`, rec.Description)

		rec, err = ParseLine(`\2024-01-01 retro notes key\:value`)
		require.NoError(t, err)
		assert.True(t, rec.Created.IsZero())
		assert.Empty(t, rec.Tags())
	})
}

func TestParseLineErrors(t *testing.T) {
	cases := map[string]string{
		"completion date on open task": "2024-01-01 2024-01-02 Something",
		"impossible date":              "2024-02-30 Leap confusion",
		"bad month":                    "x 2024-13-01 Done",
		"empty description":            "(A) 2024-01-01",
		"done without description":     "x ",
		"invalid utf8":                 "Caf\xe9 run",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLine(line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat))

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, line, fe.Text)
		})
	}
}

func TestParseKeepsBadLinesInPlace(t *testing.T) {
	text := "(A) 2024-01-01 Fix bug +proj id:42\n" +
		"\n" +
		"2024-02-30 broken date\n" +
		"x 2024-06-01 2024-01-01 Done thing id:9\n"

	records, warnings, err := Parse(strings.NewReader(text))
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Len(t, warnings, 1)

	assert.Equal(t, 3, warnings[0].Line)
	assert.True(t, records[1].Opaque())
	assert.True(t, records[2].Opaque())
	assert.Equal(t, "2024-02-30 broken date", records[2].Line())
	assert.Equal(t, "", records[2].ExternalID("id"))
	assert.True(t, records[3].Done)

	assert.Equal(t, text, Serialize(records))
}

func TestParseCRLFAndMissingTrailingNewline(t *testing.T) {
	records, warnings := ParseString("First task\r\nSecond task")
	assert.Empty(t, warnings)
	require.Len(t, records, 2)
	assert.Equal(t, "First task", records[0].Description)
	assert.Equal(t, "Second task", records[1].Description)
	assert.Equal(t, "First task\nSecond task\n", Serialize(records))
}

func TestParseEmpty(t *testing.T) {
	records, warnings := ParseString("")
	assert.Empty(t, records)
	assert.Empty(t, warnings)
}

func TestTags(t *testing.T) {
	rec, err := ParseLine("Read https://go.dev/doc +learn @home due:2024-07-01 id:3")
	require.NoError(t, err)

	assert.Equal(t, []Tag{
		Project("learn"),
		Context("home"),
		Data("due", "2024-07-01"),
		Data("id", "3"),
	}, rec.Tags())

	v, ok := rec.Tag("due")
	assert.True(t, ok)
	assert.Equal(t, "2024-07-01", v)

	_, ok = rec.Tag("missing")
	assert.False(t, ok)
}

func TestEscapeDescription(t *testing.T) {
	escaped := EscapeDescription("see key:value +proj @ctx and id:99 at https://x.io")
	assert.Equal(t, `see key\:value \+proj \@ctx and id\:99 at https://x.io`, escaped)
	assert.Empty(t, ParseTags(escaped))
	for _, s := range []string{"key", "value", "proj", "ctx", "99"} {
		assert.Contains(t, escaped, s)
	}
}

func TestEscapeDataKey(t *testing.T) {
	escaped := EscapeDataKey("blocked by id:12 owner:sam +proj @ctx", "id")
	assert.Equal(t, `blocked by id\:12 owner:sam +proj @ctx`, escaped)
	assert.Equal(t, []Tag{Data("owner", "sam"), Project("proj"), Context("ctx")}, ParseTags(escaped))
}

func TestEscapeLeading(t *testing.T) {
	assert.Equal(t, `\x marks the spot`, EscapeLeading("x marks the spot"))
	assert.Equal(t, `\(A) grade`, EscapeLeading("(A) grade"))
	assert.Equal(t, `\2024-01-01 retro`, EscapeLeading("2024-01-01 retro"))
	assert.Equal(t, "xylophone", EscapeLeading("xylophone"))
	assert.Equal(t, "plain words", EscapeLeading("plain words"))
}

func TestAppendTag(t *testing.T) {
	assert.Equal(t, "id:1", AppendTag("", Data("id", "1")))
	assert.Equal(t, "Task +p", AppendTag("Task", Project("p")))
	assert.Equal(t, "Task @c", AppendTag("Task ", Context("c")))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), d.Time())

	_, err = ParseDate("2023-02-29")
	assert.Error(t, err)
	_, err = ParseDate("24-1-1")
	assert.Error(t, err)

	assert.True(t, DateOf(time.Time{}).IsZero())
	assert.Equal(t, "", Date{}.String())
}
