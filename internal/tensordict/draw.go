package tensordict

import (
	"fmt"

	"github.com/m1gwings/treedrawer/tree"

	"github.com/born-ml/tensordict/internal/tensor"
)

// Draw renders the tree's structure as ASCII art, one node per entry with
// its dtype and shape. Intended for debugging deeply nested containers;
// String is the compact alternative.
func (td *TensorDict) Draw() string {
	root := tree.NewTree(tree.NodeString(fmt.Sprintf("TensorDict %v", td.batch)))
	drawInto(root, td)
	return root.String()
}

func drawInto(node *tree.Tree, td *TensorDict) {
	for i, k := range td.sortedKeys() {
		switch v := td.entries[k].(type) {
		case *TensorDict:
			node.AddChild(tree.NodeString(fmt.Sprintf("%s %v", k, v.batch)))
			child, err := node.Child(i)
			if err != nil {
				continue
			}
			drawInto(child, v)
		case tensor.Leaf:
			node.AddChild(tree.NodeString(fmt.Sprintf("%s %s%v", k, v.DType(), v.Shape())))
		}
	}
}
