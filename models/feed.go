package models

// Author is the public identity attached to posts and replies:
// the fields a client needs to render a byline.
type Author struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	DisplayName     string `json:"displayName"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// Profile is an Author augmented with follow-graph data relative to the
// viewer making the request.
type Profile struct {
	Author
	Followers   int64 `json:"followers"`
	Following   int64 `json:"following"`
	IsFollowing bool  `json:"isFollowing"`
}

// PostWithData is a fully hydrated post ready for display.
type PostWithData struct {
	Post          Post    `json:"post"`
	Author        Profile `json:"author"`
	LikeCount     int64   `json:"likeCount"`
	IsLikedByUser bool    `json:"isLikedByUser"`
	ReplyCount    int64   `json:"replyCount"`
}

// ReplyWithUser is a reply with its author attached. Replies carry no
// like or follow data.
type ReplyWithUser struct {
	Reply  Reply  `json:"reply"`
	Author Author `json:"author"`
}
