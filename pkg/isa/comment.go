package isa

// Comment is a free-form name/value pair attachable to any entity.
type Comment struct {
	Name  string
	Value string
}

// Commentable is embedded by every entity to provide comment handling.
type Commentable struct {
	Comments []Comment
}

// AddComment appends a comment. Several comments may share a name.
func (c *Commentable) AddComment(name, value string) {
	c.Comments = append(c.Comments, Comment{Name: name, Value: value})
}

// GetComment returns the first comment with the given name.
func (c *Commentable) GetComment(name string) (Comment, bool) {
	for _, cm := range c.Comments {
		if cm.Name == name {
			return cm, true
		}
	}
	return Comment{}, false
}

// YieldComments returns all comments with the given name, or every comment
// when name is empty.
func (c *Commentable) YieldComments(name string) []Comment {
	if name == "" {
		out := make([]Comment, len(c.Comments))
		copy(out, c.Comments)
		return out
	}
	var out []Comment
	for _, cm := range c.Comments {
		if cm.Name == name {
			out = append(out, cm)
		}
	}
	return out
}

// CommentNames returns the distinct comment names in first-seen order.
func (c *Commentable) CommentNames() []string {
	seen := make(map[string]struct{}, len(c.Comments))
	var names []string
	for _, cm := range c.Comments {
		if _, ok := seen[cm.Name]; ok {
			continue
		}
		seen[cm.Name] = struct{}{}
		names = append(names, cm.Name)
	}
	return names
}

// Annotated is implemented by every entity embedding Commentable.
type Annotated interface {
	AddComment(name, value string)
	GetComment(name string) (Comment, bool)
	YieldComments(name string) []Comment
	CommentNames() []string
}
