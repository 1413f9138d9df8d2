package normalize

import (
	"strings"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
	"github.com/hyperfocist/ValleyTalk/app/config"
)

const (
	maxSegmentLen  = 200
	maxResponseLen = 90
)

// Options alter cleanup per character and per attempt.
type Options struct {
	// Relaxed disables the segment length checks, used on late retries.
	Relaxed bool
	// ValidPortraits is the set of single-letter portrait tags the
	// character's sprite sheet actually has.
	ValidPortraits []string
}

// Service rewrites raw model output into well-formed dialogue lines.
type Service struct {
	playerName     string
	fixPunctuation bool
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Service{
		playerName:     cfg.Game.PlayerName,
		fixPunctuation: cfg.FixPunctuation(),
	}, nil
}

// ProcessLines returns the cleaned primary dialogue line followed by any
// response choices, or nil when the text fails validation.
func (s *Service) ProcessLines(text string, opts Options) []string {
	lines := strings.Split(text, "\n")
	lines = pie.Map(lines, func(line string) string {
		line = strings.ReplaceAll(line, "\r", "")
		return strings.TrimSpace(line)
	})
	lines = pie.Filter(lines, func(line string) bool {
		return line != ""
	})

	// Everything before the first "-" line is model preamble.
	for len(lines) > 0 && !strings.HasPrefix(lines[0], "-") {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return nil
	}

	dialogueLine := s.cleanDialogueLine(commonCleanup(lines[0]), opts)
	if strings.TrimSpace(dialogueLine) == "" {
		return nil
	}

	responseLines := pie.Filter(lines[1:], func(line string) bool {
		return strings.HasPrefix(line, "%")
	})
	responseLines = pie.Map(responseLines, func(line string) string {
		return s.cleanResponseLine(commonCleanup(line))
	})
	responseLines = pie.Filter(responseLines, func(line string) bool {
		return strings.TrimSpace(line) != ""
	})
	// A choice set needs at least two options to make sense.
	if len(responseLines) < 2 {
		responseLines = nil
	}

	return append([]string{dialogueLine}, responseLines...)
}

func commonCleanup(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "- \"%")
	line = strings.TrimRight(line, "\"")
	line = strings.TrimPrefix(line, "#$b#")
	line = strings.TrimSuffix(line, "#$b#")
	line = strings.TrimPrefix(line, "#$e#")
	line = strings.TrimSuffix(line, "#$e#")
	return strings.ReplaceAll(line, "\"", "")
}

func (s *Service) cleanDialogueLine(line string, opts Options) string {
	// Models escape the break markers inconsistently.
	line = strings.ReplaceAll(line, "$e", "#$e")
	line = strings.ReplaceAll(line, "$b", "#$b")
	line = strings.ReplaceAll(line, "##$e", "#$e")
	line = strings.ReplaceAll(line, "##$b", "#$b")
	line = strings.ReplaceAll(line, "#$c .5#", "")
	line = strings.ReplaceAll(line, "@@", "@")
	for _, tag := range opts.ValidPortraits {
		line = strings.ReplaceAll(line, "#$"+tag, "$"+tag)
	}

	line = stripUnknownDirectives(line, opts.ValidPortraits)
	line = strings.TrimSpace(line)

	segments := strings.Split(line, "#")
	if !opts.Relaxed && pie.Any(segments, tooLong) {
		segments = splitLongSegments(segments, opts.ValidPortraits)
		if pie.Any(segments, tooLong) {
			return ""
		}
	}
	if s.fixPunctuation {
		for i, segment := range segments {
			segments[i] = fixSegmentPunctuation(segment)
		}
	}
	return strings.Join(segments, "#")
}

func tooLong(segment string) bool {
	return len(segment) > maxSegmentLen
}

// stripUnknownDirectives walks the line and drops every $name directive
// whose name is not a valid portrait tag. $e, $c and $b pass through, a
// bare trailing $ is removed.
func stripUnknownDirectives(line string, validPortraits []string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '$' {
			continue
		}
		if i+1 >= len(line) {
			line = line[:i]
			break
		}
		switch line[i+1] {
		case 'e', 'c', 'b':
			i++
		default:
			end := strings.IndexByte(line[i:], '#')
			if end == -1 {
				end = len(line)
			} else {
				end += i
			}
			name := line[i+1 : end]
			if !pie.Contains(validPortraits, name) {
				line = line[:i] + line[i+1+len(name):]
				i--
			}
		}
	}
	return line
}

// splitLongSegments re-splits oversized segments at the last sentence
// boundary within the length budget, keeping a trailing $x portrait tag
// attached to every produced piece.
func splitLongSegments(segments []string, validPortraits []string) []string {
	var result []string
	for _, segment := range segments {
		if len(segment) <= maxSegmentLen {
			result = append(result, segment)
			continue
		}

		var tag string
		remainder := segment
		if len(segment) > 2 && segment[len(segment)-2] == '$' &&
			pie.Contains(validPortraits, segment[len(segment)-1:]) {
			tag = segment[len(segment)-2:]
			remainder = segment[:len(segment)-2]
		}

		budget := maxSegmentLen - len(tag)
		for len(remainder) > budget {
			head := remainder[:budget]
			cut := strings.LastIndexAny(head, ".!?")
			if cut != -1 {
				result = append(result, remainder[:cut+1]+tag)
				remainder = strings.TrimSpace(remainder[cut+1:])
			} else {
				result = append(result, head+tag)
				remainder = ""
			}
		}
		if len(remainder) > 0 {
			result = append(result, remainder+tag)
		}
	}
	return result
}

func fixSegmentPunctuation(segment string) string {
	dollar := strings.IndexByte(segment, '$')
	upToDollar := segment
	if dollar != -1 {
		upToDollar = segment[:dollar]
	}
	upToDollar = strings.TrimSpace(upToDollar)
	if upToDollar == "" || strings.ContainsAny(upToDollar[len(upToDollar)-1:], ".!?") {
		return segment
	}
	if dollar > 0 && len(segment) > len(upToDollar) {
		return upToDollar + "." + segment[dollar:]
	}
	return upToDollar + "."
}

func (s *Service) cleanResponseLine(line string) string {
	line = strings.ReplaceAll(line, "#", "")
	for i := 0; i < len(line); i++ {
		if line[i] != '$' {
			continue
		}
		if i+1 < len(line) {
			line = line[:i] + line[i+2:]
		} else {
			line = line[:i]
		}
		i--
	}
	line = strings.ReplaceAll(line, "@", s.playerName)
	line = strings.TrimSpace(line)
	if s.fixPunctuation && line != "" && !strings.ContainsAny(line[len(line)-1:], ".!?") {
		line += "."
	}
	if len(line) > maxResponseLen {
		return ""
	}
	return line
}
