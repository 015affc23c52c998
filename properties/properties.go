// Package properties loads Java-style property bags from pluggable locations.
//
// Property files configure the signature, encryption, and token material used
// during security token exchanges. Deployments keep them on local disk, in S3
// buckets, or in Vault, so locations are given as URIs:
//
//   - /etc/sts/signature.properties (bare paths are local files)
//   - file:///etc/sts/signature.properties
//   - s3://bucket-name/sts/signature.properties?region=us-west-2
//   - vault://vault.example.com:8200/secret/sts-signature
package properties

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Properties is a parsed property bag.
type Properties map[string]string

// Get returns the value for key, or the empty string when absent.
func (p Properties) Get(key string) string {
	return p[key]
}

// Parse reads a Java .properties stream: '#' and '!' comments, key=value and
// key: value separators, backslash line continuations, and \uXXXX escapes.
func Parse(r io.Reader) (Properties, error) {
	props := Properties{}
	scanner := bufio.NewScanner(r)

	var logical string
	for scanner.Scan() {
		line := strings.TrimLeft(scanner.Text(), " \t")

		if logical == "" && (line == "" || line[0] == '#' || line[0] == '!') {
			continue
		}

		if strings.HasSuffix(line, "\\") && !strings.HasSuffix(line, "\\\\") {
			logical += strings.TrimSuffix(line, "\\")
			continue
		}
		logical += line

		key, value, err := splitProperty(logical)
		if err != nil {
			return nil, err
		}
		props[key] = value
		logical = ""
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read properties: %w", err)
	}
	if logical != "" {
		// Trailing continuation with no following line.
		key, value, err := splitProperty(logical)
		if err != nil {
			return nil, err
		}
		props[key] = value
	}

	return props, nil
}

func splitProperty(line string) (string, string, error) {
	sep := strings.IndexAny(line, "=:")
	if sep < 0 {
		// A bare key with no separator maps to the empty value.
		key, err := unescape(strings.TrimSpace(line))
		return key, "", err
	}

	key, err := unescape(strings.TrimSpace(line[:sep]))
	if err != nil {
		return "", "", err
	}
	value, err := unescape(strings.TrimLeft(line[sep+1:], " \t"))
	if err != nil {
		return "", "", err
	}
	return key, value, nil
}

func unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			break
		}
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("truncated unicode escape in %q", s)
			}
			code, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid unicode escape in %q: %w", s, err)
			}
			b.WriteRune(rune(code))
			i += 4
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}
