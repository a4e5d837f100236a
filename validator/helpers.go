package validator

import (
	"strings"

	"github.com/BaSui01/codecage/lang"
)

// constPath builds the dotted path of a constant-rooted chain, walking
// receivers until it bottoms out at a ConstRef. Returns false for chains
// rooted elsewhere (a variable receiver carries no named-entity identity).
//
// Matching exact entries at every node of the chain yields prefix semantics
// overall: for a forbidden "Math.dangerous", the code "Math.dangerous.deeper"
// is caught at its "Math.dangerous" receiver node during descent.
func constPath(n lang.Node) (string, bool) {
	var parts []string
	for {
		switch node := n.(type) {
		case *lang.ConstRef:
			parts = append(parts, node.Name)
			return joinReversed(parts), true
		case *lang.Call:
			if node.Receiver == nil {
				return "", false
			}
			parts = append(parts, node.Name)
			n = node.Receiver
		case *lang.Index:
			n = node.Receiver
		default:
			return "", false
		}
	}
}

func joinReversed(parts []string) string {
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(parts[i])
		if i > 0 {
			b.WriteByte('.')
		}
	}
	return b.String()
}
