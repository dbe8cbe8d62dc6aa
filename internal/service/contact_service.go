package service

import "context"

type ContactService struct{ base }

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (s *ContactService) Send(ctx context.Context, req *ContactRequest) (string, error) {
	var resp MessageResponse
	if err := s.client.Post(ctx, "/contact", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
