package dto

import (
	"time"

	"github.com/cppla/articles/models"
)

// CommentFields is the table for top-level comments. The references are writable so an
// update that tries to move the comment can be detected and rejected.
var CommentFields = Fields{
	"id":            {Readable: true},
	"message":       {Readable: true, Writable: true, Required: true},
	"created":       {Readable: true},
	"updated":       {Readable: true},
	"like":          {Readable: true},
	"dislike":       {Readable: true},
	"article":       {Readable: true, Writable: true, Required: true},
	"author":        {Readable: true},
	"is_reply":      {Readable: true, Writable: true},
	"comment_reply": {Readable: true, Writable: true},
}

// ReplyFields is the table for replies. The article is derived from the parent.
var ReplyFields = Fields{
	"id":            {Readable: true},
	"message":       {Readable: true, Writable: true, Required: true},
	"created":       {Readable: true},
	"updated":       {Readable: true},
	"like":          {Readable: true},
	"dislike":       {Readable: true},
	"article":       {Readable: true},
	"author":        {Readable: true},
	"is_reply":      {Readable: true},
	"comment_reply": {Readable: true, Writable: true, Required: true},
}

// CommentInput is the decoded comment body.
type CommentInput struct {
	Message      *string `json:"message" validate:"omitempty,notblank"`
	Article      *uint   `json:"article"`
	IsReply      *bool   `json:"is_reply"`
	CommentReply *uint   `json:"comment_reply"`
}

// FrozenChanges reports every reference the input tries to change on c.
func (in *CommentInput) FrozenChanges(c *models.Comment) FieldErrors {
	errs := FieldErrors{}
	if in.Article != nil && *in.Article != c.ArticleID {
		errs.Add("article", MsgImmutable)
	}
	if in.IsReply != nil && *in.IsReply != c.IsReply {
		errs.Add("is_reply", MsgImmutable)
	}
	if in.CommentReply != nil && (c.CommentReplyID == nil || *in.CommentReply != *c.CommentReplyID) {
		errs.Add("comment_reply", MsgImmutable)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// CommentResponse is the representation of a comment; author is the username.
type CommentResponse struct {
	ID           uint      `json:"id"`
	Message      string    `json:"message"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`
	Like         int       `json:"like"`
	Dislike      int       `json:"dislike"`
	Article      uint      `json:"article"`
	Author       string    `json:"author"`
	IsReply      bool      `json:"is_reply"`
	CommentReply *uint     `json:"comment_reply"`
}

// ToComment maps a comment with a loaded author.
func ToComment(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:           c.ID,
		Message:      c.Message,
		Created:      c.CreatedAt,
		Updated:      c.UpdatedAt,
		Like:         c.Likes,
		Dislike:      c.Dislikes,
		Article:      c.ArticleID,
		Author:       c.Author.Username,
		IsReply:      c.IsReply,
		CommentReply: c.CommentReplyID,
	}
}

// ToComments maps a slice of comments.
func ToComments(comments []models.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, ToComment(&comments[i]))
	}
	return out
}

// CommentNode is one comment of a thread with its replies.
type CommentNode struct {
	CommentResponse
	Replies []*CommentNode `json:"replies"`
}

// BuildThread arranges comments into reply trees. Comments must be in creation order;
// replies whose parent is missing from the slice are attached at the top level.
func BuildThread(comments []models.Comment) []*CommentNode {
	nodes := make(map[uint]*CommentNode, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &CommentNode{CommentResponse: ToComment(&comments[i]), Replies: []*CommentNode{}}
	}
	roots := []*CommentNode{}
	for i := range comments {
		node := nodes[comments[i].ID]
		if parentID := comments[i].CommentReplyID; parentID != nil {
			if parent, ok := nodes[*parentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
