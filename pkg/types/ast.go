package types

// NodeType identifies the type of an AST node.
type NodeType string

// AST node types.
const (
	// Literals
	NodeNumber  NodeType = "number"
	NodeBoolean NodeType = "boolean" // true/false

	// References
	NodeName NodeType = "name" // Variable, resolved against bindings at evaluation time

	// Operators
	NodeUnary  NodeType = "unary"  // -, !
	NodeBinary NodeType = "binary" // + - * / == != < > <= >= && ||

	// Functions
	NodeFunction NodeType = "function" // Built-in function call
)

// ASTNode represents a node in the Abstract Syntax Tree.
//
// Nodes form a strict tree: every child has exactly one parent and the parser
// never shares a subtree. Nodes are not modified after the parser returns them.
type ASTNode struct {
	Type     NodeType
	Position int // Byte offset of the token that produced the node

	NumValue  float64 // NodeNumber
	BoolValue bool    // NodeBoolean
	Name      string  // NodeName (variable) or NodeFunction (function name)
	Operator  string  // NodeUnary, NodeBinary

	// Relations
	LHS       *ASTNode   // Left operand (binary) or sole operand (unary)
	RHS       *ASTNode   // Right operand (binary)
	Arguments []*ASTNode // Function arguments, in source order
}

// NewASTNode creates a new AST node of the specified type.
func NewASTNode(nodeType NodeType, position int) *ASTNode {
	return &ASTNode{
		Type:     nodeType,
		Position: position,
	}
}

// String returns a string representation of the node type.
func (n *ASTNode) String() string {
	return string(n.Type)
}

// Walk visits n and its descendants in depth-first, left-to-right order.
// Returning false from fn skips the children of the current node.
func Walk(n *ASTNode, fn func(*ASTNode) bool) {
	if n == nil || !fn(n) {
		return
	}
	Walk(n.LHS, fn)
	Walk(n.RHS, fn)
	for _, arg := range n.Arguments {
		Walk(arg, fn)
	}
}
