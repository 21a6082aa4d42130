package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gawkgo/gawkgo/internal/types"
)

// sprintf formats args[0] as a printf-style template against args[1:],
// per spec.md §4.10. Grounded on the teacher's builtinSprintf
// (internal/vm/builtins.go), generalized from the VM's operand stack to a
// plain value slice.
func (ip *Interp) sprintf(args []types.Value) string {
	if len(args) == 0 {
		return ""
	}
	format := args[0].AsStr(ip.convfmt)
	values := args[1:]

	var result strings.Builder
	idx := 0
	next := func() types.Value {
		if idx < len(values) {
			v := values[idx]
			idx++
			return v
		}
		return types.Null()
	}

	i := 0
	for i < len(format) {
		if format[i] != '%' {
			result.WriteByte(format[i])
			i++
			continue
		}
		i++
		if i >= len(format) {
			result.WriteByte('%')
			break
		}
		if format[i] == '%' {
			result.WriteByte('%')
			i++
			continue
		}

		var flags strings.Builder
		for i < len(format) && strings.ContainsAny(string(format[i]), "-+ #0") {
			flags.WriteByte(format[i])
			i++
		}

		var width string
		if i < len(format) && format[i] == '*' {
			w := int(next().AsNum())
			if w < 0 {
				flags.WriteByte('-')
				w = -w
			}
			width = strconv.Itoa(w)
			i++
		} else {
			for i < len(format) && format[i] >= '0' && format[i] <= '9' {
				width += string(format[i])
				i++
			}
		}

		var precision string
		if i < len(format) && format[i] == '.' {
			precision = "."
			i++
			if i < len(format) && format[i] == '*' {
				p := int(next().AsNum())
				if p < 0 {
					precision = ""
				} else {
					precision += strconv.Itoa(p)
				}
				i++
			} else {
				for i < len(format) && format[i] >= '0' && format[i] <= '9' {
					precision += string(format[i])
					i++
				}
			}
		}

		if i >= len(format) {
			result.WriteString("%" + flags.String() + width + precision)
			break
		}

		spec := format[i]
		i++
		value := next()

		switch spec {
		case 'd', 'i':
			result.WriteString(fmt.Sprintf("%"+flags.String()+width+precision+"d", int64(value.AsNum())))
		case 'o':
			result.WriteString(fmt.Sprintf("%"+flags.String()+width+precision+"o", uint64(value.AsNum())))
		case 'x':
			result.WriteString(fmt.Sprintf("%"+flags.String()+width+precision+"x", uint64(value.AsNum())))
		case 'X':
			result.WriteString(fmt.Sprintf("%"+flags.String()+width+precision+"X", uint64(value.AsNum())))
		case 'u':
			result.WriteString(fmt.Sprintf("%"+flags.String()+width+precision+"d", uint64(value.AsNum())))
		case 'c':
			if value.IsNum() || value.IsNull() {
				n := int(value.AsNum())
				if n >= 0 && n <= 255 {
					result.WriteByte(byte(n))
				}
			} else {
				s := value.AsStr(ip.convfmt)
				if len(s) > 0 {
					result.WriteByte(s[0])
				}
			}
		case 's':
			result.WriteString(fmt.Sprintf("%"+flags.String()+width+precision+"s", value.AsStr(ip.convfmt)))
		case 'e':
			result.WriteString(fmt.Sprintf("%"+flags.String()+width+precision+"e", value.AsNum()))
		case 'E':
			result.WriteString(fmt.Sprintf("%"+flags.String()+width+precision+"E", value.AsNum()))
		case 'f', 'F':
			result.WriteString(fmt.Sprintf("%"+flags.String()+width+precision+"f", value.AsNum()))
		case 'g':
			result.WriteString(fmt.Sprintf("%"+flags.String()+width+precision+"g", value.AsNum()))
		case 'G':
			result.WriteString(fmt.Sprintf("%"+flags.String()+width+precision+"G", value.AsNum()))
		default:
			result.WriteByte('%')
			result.WriteByte(spec)
		}
	}
	return result.String()
}
