package github

import "github.com/okian/startrack/internal/domain/model"

type searchResponse struct {
	TotalCount        int       `json:"total_count"`
	IncompleteResults bool      `json:"incomplete_results"`
	Items             []repoDTO `json:"items"`
}

type ownerDTO struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	HTMLURL   string `json:"html_url"`
	AvatarURL string `json:"avatar_url"`
	Type      string `json:"type"`
}

type repoDTO struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	FullName        string   `json:"full_name"`
	Description     string   `json:"description"`
	Language        string   `json:"language"`
	Homepage        string   `json:"homepage"`
	HTMLURL         string   `json:"html_url"`
	Topics          []string `json:"topics"`
	StargazersCount int64    `json:"stargazers_count"`
	OpenIssuesCount int64    `json:"open_issues_count"`
	ForksCount      int64    `json:"forks_count"`
	Owner           ownerDTO `json:"owner"`
}

func (r repoDTO) model() model.RankedEntity {
	return model.RankedEntity{
		Entity: model.Entity{
			ID:          r.ID,
			Name:        r.Name,
			FullName:    r.FullName,
			Description: r.Description,
			Language:    r.Language,
			Homepage:    r.Homepage,
			URL:         r.HTMLURL,
			Topics:      r.Topics,
			Owner: model.Owner{
				ID:        r.Owner.ID,
				Login:     r.Owner.Login,
				URL:       r.Owner.HTMLURL,
				AvatarURL: r.Owner.AvatarURL,
				Type:      r.Owner.Type,
			},
		},
		Stars:      r.StargazersCount,
		OpenIssues: r.OpenIssuesCount,
		Forks:      r.ForksCount,
	}
}

// accountDTO covers both GET /users/{login} and GET /orgs/{org}.
type accountDTO struct {
	Login           string  `json:"login"`
	TwitterUsername *string `json:"twitter_username"`
}

type errorDTO struct {
	Message string `json:"message"`
}
