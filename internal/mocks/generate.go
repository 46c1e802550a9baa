package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Directory --dir ../domain/team --output domain/team --outpkg teammock --filename directory_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name StatsProvider --dir ../usecase --output usecase --outpkg usecasemock --filename stats_provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name ArtifactWriter --dir ../usecase --output usecase --outpkg usecasemock --filename artifact_writer_mock.go
