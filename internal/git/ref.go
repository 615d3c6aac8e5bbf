package git

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRef is returned for strings that do not name a pull request.
var ErrInvalidRef = errors.New("invalid pull request reference")

// PRRef identifies a pull request by owner, repository and number.
type PRRef struct {
	Owner  string
	Repo   string
	Number int
}

func (r PRRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// ParsePRRef accepts owner/repo#42, owner/repo/42 and
// https://github.com/owner/repo/pull/42.
func ParsePRRef(s string) (PRRef, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "https://github.com/")
	trimmed = strings.TrimPrefix(trimmed, "http://github.com/")
	trimmed = strings.TrimSuffix(trimmed, "/")

	var owner, repo, num string
	if i := strings.LastIndex(trimmed, "#"); i >= 0 {
		segments := strings.Split(trimmed[:i], "/")
		if len(segments) != 2 {
			return PRRef{}, fmt.Errorf("%w: %s", ErrInvalidRef, s)
		}
		owner, repo, num = segments[0], segments[1], trimmed[i+1:]
	} else {
		segments := strings.Split(trimmed, "/")
		switch {
		case len(segments) == 4 && segments[2] == "pull":
			owner, repo, num = segments[0], segments[1], segments[3]
		case len(segments) == 3:
			owner, repo, num = segments[0], segments[1], segments[2]
		default:
			return PRRef{}, fmt.Errorf("%w: %s", ErrInvalidRef, s)
		}
	}

	if owner == "" || repo == "" {
		return PRRef{}, fmt.Errorf("%w: %s", ErrInvalidRef, s)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return PRRef{}, fmt.Errorf("%w: bad number in %s", ErrInvalidRef, s)
	}
	return PRRef{Owner: owner, Repo: repo, Number: n}, nil
}

// ResolvePRRef is ParsePRRef plus the short forms #42 and 42, which take
// owner/repo from the origin remote of the repository at dir.
func ResolvePRRef(s string, local Client, dir string) (PRRef, error) {
	short := strings.TrimPrefix(strings.TrimSpace(s), "#")
	n, err := strconv.Atoi(short)
	if err != nil {
		return ParsePRRef(s)
	}
	if n <= 0 {
		return PRRef{}, fmt.Errorf("%w: bad number in %s", ErrInvalidRef, s)
	}

	remote, err := local.RemoteURL(dir)
	if err != nil {
		return PRRef{}, err
	}
	if remote == "" {
		return PRRef{}, fmt.Errorf("%w: %s needs owner/repo outside a repository with an origin remote", ErrInvalidRef, s)
	}
	owner, repo, err := ExtractOwnerRepo(remote)
	if err != nil {
		return PRRef{}, fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}
	return PRRef{Owner: owner, Repo: repo, Number: n}, nil
}
