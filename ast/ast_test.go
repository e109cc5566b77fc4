package ast

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

// newOpenForTest creates an Open directive for testing.
func newOpenForTest(line int, date *Date, account Account) *Open {
	return &Open{Pos: Position{Line: line}, Date: date, Account: account}
}

// newCloseForTest creates a Close directive for testing.
func newCloseForTest(line int, date *Date, account Account) *Close {
	return &Close{Pos: Position{Line: line}, Date: date, Account: account}
}

// newOptionForTest creates an Option for testing.
func newOptionForTest(line int, name, value string) *Option {
	return &Option{Pos: Position{Line: line}, Name: name, Value: value}
}

// newIncludeForTest creates an Include for testing.
func newIncludeForTest(line int, filename string) *Include {
	return &Include{Pos: Position{Line: line}, Filename: filename}
}

// newPluginForTest creates a Plugin for testing.
func newPluginForTest(line int, name string) *Plugin {
	return &Plugin{Pos: Position{Line: line}, Name: name}
}

// newPushtagForTest creates a Pushtag for testing.
func newPushtagForTest(line int, tag Tag) *Pushtag {
	return &Pushtag{Pos: Position{Line: line}, Tag: tag}
}

// newPoptagForTest creates a Poptag for testing.
func newPoptagForTest(line int, tag Tag) *Poptag {
	return &Poptag{Pos: Position{Line: line}, Tag: tag}
}

// newPushmetaForTest creates a Pushmeta for testing.
func newPushmetaForTest(line int, key, value string) *Pushmeta {
	return &Pushmeta{Pos: Position{Line: line}, Key: key, Value: value}
}

// newPopmetaForTest creates a Popmeta for testing.
func newPopmetaForTest(line int, key string) *Popmeta {
	return &Popmeta{Pos: Position{Line: line}, Key: key}
}

// newCommentForTest creates a Comment for testing.
func newCommentForTest(line int, content string) *Comment {
	return &Comment{Pos: Position{Line: line}, Content: content}
}

// newBlankLineForTest creates a BlankLine for testing.
func newBlankLineForTest(line int) *BlankLine {
	return &BlankLine{Pos: Position{Line: line}}
}

func TestLinesWithMultipleItems(t *testing.T) {
	t.Run("EmptyAST", func(t *testing.T) {
		tree := &AST{}
		multiLines := LinesWithMultipleItems(tree)
		assert.Equal(t, 0, len(multiLines))
	})

	t.Run("SingleItemPerLine", func(t *testing.T) {
		date, _ := NewDate("2024-01-01")
		account, _ := NewAccount("Assets:Checking")

		tree := &AST{
			Directives: []Directive{
				newOpenForTest(1, date, account),
				newOpenForTest(2, date, account),
			},
		}

		multiLines := LinesWithMultipleItems(tree)
		assert.Equal(t, 0, len(multiLines))
	})

	t.Run("TwoDirectivesOnSameLine", func(t *testing.T) {
		date, _ := NewDate("2024-01-01")
		account, _ := NewAccount("Assets:Checking")

		tree := &AST{
			Directives: []Directive{
				newOpenForTest(1, date, account),
				newCloseForTest(1, date, account), // Same line as Open
			},
		}

		multiLines := LinesWithMultipleItems(tree)
		assert.Equal(t, 1, len(multiLines))
		assert.True(t, multiLines[1])
	})

	t.Run("DirectiveAndCommentOnSameLine", func(t *testing.T) {
		date, _ := NewDate("2024-01-01")
		account, _ := NewAccount("Assets:Checking")

		tree := &AST{
			Directives: []Directive{
				newOpenForTest(1, date, account),
			},
			Comments: []*Comment{
				newCommentForTest(1, "; This is a comment"), // Same line as Open
			},
		}

		multiLines := LinesWithMultipleItems(tree)
		assert.Equal(t, 1, len(multiLines))
		assert.True(t, multiLines[1])
	})

	t.Run("DirectiveAndBlankLineOnDifferentLines", func(t *testing.T) {
		date, _ := NewDate("2024-01-01")
		account, _ := NewAccount("Assets:Checking")

		tree := &AST{
			Directives: []Directive{
				newOpenForTest(1, date, account),
			},
			BlankLines: []*BlankLine{
				newBlankLineForTest(2), // Different line
			},
		}

		multiLines := LinesWithMultipleItems(tree)
		assert.Equal(t, 0, len(multiLines))
	})

	t.Run("MultipleItemTypesOnSameLine", func(t *testing.T) {
		date, _ := NewDate("2024-01-01")
		account, _ := NewAccount("Assets:Checking")

		tree := &AST{
			Options: []*Option{
				newOptionForTest(5, "title", "My Ledger"),
			},
			Includes: []*Include{
				newIncludeForTest(5, "accounts.beancount"), // Same line as Option
			},
			Directives: []Directive{
				newOpenForTest(5, date, account), // Same line as Option and Include
			},
		}

		multiLines := LinesWithMultipleItems(tree)
		assert.Equal(t, 1, len(multiLines))
		assert.True(t, multiLines[5])
	})

	t.Run("PushtagAndDirectiveOnSameLine", func(t *testing.T) {
		date, _ := NewDate("2024-01-01")
		account, _ := NewAccount("Assets:Checking")

		tree := &AST{
			Pushtags: []*Pushtag{
				newPushtagForTest(10, NewTag("vacation")),
			},
			Directives: []Directive{
				newOpenForTest(10, date, account), // Same line as Pushtag
			},
		}

		multiLines := LinesWithMultipleItems(tree)
		assert.Equal(t, 1, len(multiLines))
		assert.True(t, multiLines[10])
	})

	t.Run("MultipleLinesWithMultipleItems", func(t *testing.T) {
		date, _ := NewDate("2024-01-01")
		account, _ := NewAccount("Assets:Checking")

		tree := &AST{
			Directives: []Directive{
				newOpenForTest(1, date, account),
				newCloseForTest(1, date, account), // Line 1 has 2 items
				newOpenForTest(2, date, account),  // Line 2 has 1 item
				newOpenForTest(3, date, account),
				newCloseForTest(3, date, account), // Line 3 has 2 items
			},
		}

		multiLines := LinesWithMultipleItems(tree)
		assert.Equal(t, 2, len(multiLines))
		assert.True(t, multiLines[1])
		assert.False(t, multiLines[2])
		assert.True(t, multiLines[3])
	})

	t.Run("AllItemTypes", func(t *testing.T) {
		date, _ := NewDate("2024-01-01")
		account, _ := NewAccount("Assets:Checking")

		tree := &AST{
			Options: []*Option{
				newOptionForTest(1, "title", "Test"),
			},
			Includes: []*Include{
				newIncludeForTest(2, "test.beancount"),
			},
			Plugins: []*Plugin{
				newPluginForTest(3, "test_plugin"),
			},
			Pushtags: []*Pushtag{
				newPushtagForTest(4, NewTag("test")),
			},
			Poptags: []*Poptag{
				newPoptagForTest(5, NewTag("test")),
			},
			Pushmetas: []*Pushmeta{
				newPushmetaForTest(6, "key", "value"),
			},
			Popmetas: []*Popmeta{
				newPopmetaForTest(7, "key"),
			},
			Directives: []Directive{
				newOpenForTest(8, date, account),
			},
			Comments: []*Comment{
				newCommentForTest(9, "; comment"),
			},
			BlankLines: []*BlankLine{
				newBlankLineForTest(10),
			},
		}

		multiLines := LinesWithMultipleItems(tree)
		// All items are on different lines, so no multiple items
		assert.Equal(t, 0, len(multiLines))
	})
}
