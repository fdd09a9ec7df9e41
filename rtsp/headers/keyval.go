// Package headers implements typed parsers/encoders for the RTSP headers
// AirPlay relies on (Transport, Session, RTP-Info), generalized from the
// gortsplib pkg/headers key=value scanning style.
package headers

import (
	"fmt"
	"strings"
)

func findValue(str string, separator byte) (string, string, error) {
	if len(str) > 0 && str[0] == '"' {
		i := 1
		for {
			if i >= len(str) {
				return "", "", fmt.Errorf("apexes not closed (%v)", str)
			}
			if str[i] == '"' {
				return str[1:i], str[i+1:], nil
			}
			i++
		}
	}

	i := 0
	for {
		if i >= len(str) || str[i] == separator {
			return str[:i], str[i:], nil
		}
		i++
	}
}

func keyValParse(str string, separator byte) (map[string]string, error) {
	ret := make(map[string]string)

	for len(str) > 0 {
		i := strings.IndexAny(str, "="+string(separator))
		if i < 0 {
			i = len(str)
		}
		var k string
		k, str = str[:i], str[i:]

		var v string
		if len(str) > 0 && str[0] == '=' {
			var err error
			v, str, err = findValue(str[1:], separator)
			if err != nil {
				return nil, err
			}
		}

		ret[k] = v

		if len(str) > 0 && str[0] == separator {
			str = str[1:]
		}
		for len(str) > 0 && str[0] == ' ' {
			str = str[1:]
		}
	}

	return ret, nil
}
