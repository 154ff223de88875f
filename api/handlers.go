package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/dispatch"
	"github.com/poiesic/todoey/todo"
)

func idParam(c echo.Context) core.ID {
	return core.ID(c.Param("id"))
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listCategories(c echo.Context) error {
	categories, err := dispatch.Await(c.Request().Context(), s.dispatcher, func(ctx context.Context, repo *todo.Repository) ([]*core.Category, error) {
		return repo.ListCategories(ctx)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategories(categories))
}

func (s *Server) searchCategories(c echo.Context) error {
	query := c.QueryParam("q")
	categories, err := dispatch.Await(c.Request().Context(), s.dispatcher, func(ctx context.Context, repo *todo.Repository) ([]*core.Category, error) {
		return repo.SearchCategories(ctx, query)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategories(categories))
}

func (s *Server) getCategory(c echo.Context) error {
	id := idParam(c)
	category, err := dispatch.Await(c.Request().Context(), s.dispatcher, func(ctx context.Context, repo *todo.Repository) (*core.Category, error) {
		return repo.GetCategory(ctx, id)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategory(category))
}

func (s *Server) createCategory(c echo.Context) error {
	var req NameRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	category, err := dispatch.Await(c.Request().Context(), s.dispatcher, func(ctx context.Context, repo *todo.Repository) (*core.Category, error) {
		return repo.CreateCategory(ctx, req.Name)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCategory(category))
}

func (s *Server) renameCategory(c echo.Context) error {
	id := idParam(c)
	var req NameRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	category, err := dispatch.Await(c.Request().Context(), s.dispatcher, func(ctx context.Context, repo *todo.Repository) (*core.Category, error) {
		return repo.RenameCategory(ctx, id, req.Name)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategory(category))
}

func (s *Server) deleteCategory(c echo.Context) error {
	id := idParam(c)
	err := dispatch.Run(c.Request().Context(), s.dispatcher, func(ctx context.Context, repo *todo.Repository) error {
		return repo.DeleteCategory(ctx, id)
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listItems(c echo.Context) error {
	id := idParam(c)
	items, err := dispatch.Await(c.Request().Context(), s.dispatcher, func(ctx context.Context, repo *todo.Repository) ([]*core.Item, error) {
		return repo.ListItems(ctx, id)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItems(items))
}

func (s *Server) searchItems(c echo.Context) error {
	id := idParam(c)
	query := c.QueryParam("q")
	items, err := dispatch.Await(c.Request().Context(), s.dispatcher, func(ctx context.Context, repo *todo.Repository) ([]*core.Item, error) {
		return repo.SearchItems(ctx, id, query)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItems(items))
}

func (s *Server) getItem(c echo.Context) error {
	id := idParam(c)
	item, err := dispatch.Await(c.Request().Context(), s.dispatcher, func(ctx context.Context, repo *todo.Repository) (*core.Item, error) {
		return repo.GetItem(ctx, id)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItem(item))
}

func (s *Server) createItem(c echo.Context) error {
	id := idParam(c)
	var req TitleRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	item, err := dispatch.Await(c.Request().Context(), s.dispatcher, func(ctx context.Context, repo *todo.Repository) (*core.Item, error) {
		return repo.CreateItem(ctx, id, req.Title)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toItem(item))
}

func (s *Server) toggleItem(c echo.Context) error {
	id := idParam(c)
	item, err := dispatch.Await(c.Request().Context(), s.dispatcher, func(ctx context.Context, repo *todo.Repository) (*core.Item, error) {
		return repo.ToggleDone(ctx, id)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItem(item))
}

func (s *Server) renameItem(c echo.Context) error {
	id := idParam(c)
	var req TitleRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	item, err := dispatch.Await(c.Request().Context(), s.dispatcher, func(ctx context.Context, repo *todo.Repository) (*core.Item, error) {
		return repo.RenameItem(ctx, id, req.Title)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItem(item))
}

func (s *Server) deleteItem(c echo.Context) error {
	id := idParam(c)
	err := dispatch.Run(c.Request().Context(), s.dispatcher, func(ctx context.Context, repo *todo.Repository) error {
		return repo.DeleteItem(ctx, id)
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
