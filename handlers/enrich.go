package handlers

import (
	"context"

	"chirper/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// attachFollowData augments an author with follower/following counts and
// whether the viewer follows them. isFollowing is false for signed-out
// viewers. The three reads are independent queries, re-evaluated per item.
func (h *Handler) attachFollowData(ctx context.Context, author models.Author, authorID primitive.ObjectID, viewerID *primitive.ObjectID) (*models.Profile, error) {
	followers, err := h.Store.CountFollowers(ctx, authorID)
	if err != nil {
		return nil, err
	}

	following, err := h.Store.CountFollowing(ctx, authorID)
	if err != nil {
		return nil, err
	}

	isFollowing := false
	if viewerID != nil {
		isFollowing, err = h.Store.HasFollow(ctx, *viewerID, authorID)
		if err != nil {
			return nil, err
		}
	}

	return &models.Profile{
		Author:      author,
		Followers:   followers,
		Following:   following,
		IsFollowing: isFollowing,
	}, nil
}

// enrichPost hydrates one post: author profile with follow data, like count,
// whether the viewer liked it, and reply count.
func (h *Handler) enrichPost(ctx context.Context, post models.Post, viewerID *primitive.ObjectID) (*models.PostWithData, error) {
	author, err := h.Identity.Lookup(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}

	profile, err := h.attachFollowData(ctx, *author, post.AuthorID, viewerID)
	if err != nil {
		return nil, err
	}

	likeCount, err := h.Store.CountLikes(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	isLiked := false
	if viewerID != nil {
		isLiked, err = h.Store.HasLike(ctx, post.ID, *viewerID)
		if err != nil {
			return nil, err
		}
	}

	replyCount, err := h.Store.CountReplies(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	return &models.PostWithData{
		Post:          post,
		Author:        *profile,
		LikeCount:     likeCount,
		IsLikedByUser: isLiked,
		ReplyCount:    replyCount,
	}, nil
}

// enrichPosts hydrates a page concurrently, one goroutine per post. Each
// result is written at the post's original index, so the returned slice
// keeps the query order no matter which fetch finishes first.
func (h *Handler) enrichPosts(ctx context.Context, posts []models.Post, viewerID *primitive.ObjectID) ([]models.PostWithData, error) {
	enriched := make([]models.PostWithData, len(posts))

	g, gctx := errgroup.WithContext(ctx)
	for i, post := range posts {
		g.Go(func() error {
			item, err := h.enrichPost(gctx, post, viewerID)
			if err != nil {
				return err
			}
			enriched[i] = *item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return enriched, nil
}

// enrichReplies attaches authors to a page of replies, fanned out the same
// way as posts. Replies carry no like or follow data.
func (h *Handler) enrichReplies(ctx context.Context, replies []models.Reply) ([]models.ReplyWithUser, error) {
	enriched := make([]models.ReplyWithUser, len(replies))

	g, gctx := errgroup.WithContext(ctx)
	for i, reply := range replies {
		g.Go(func() error {
			author, err := h.Identity.Lookup(gctx, reply.UserID)
			if err != nil {
				return err
			}
			enriched[i] = models.ReplyWithUser{Reply: reply, Author: *author}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return enriched, nil
}
