package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/transient/log"
	scenePkg "github.com/achilleasa/transient/scene"
	"github.com/achilleasa/transient/types"
)

type wavefrontReader struct {
	logger log.Logger

	// List of parsed vertices and uv coords, shared by all objects.
	vertexList []types.Vec3
	uvList     []types.Vec2

	// Triangles of the object currently being assembled.
	curIndices []uint32
	curUV      []types.Vec2

	meshes []*scenePkg.TriangleMesh
}

// Read a wavefront object file and return one triangle mesh per object
// group. Only vertex, texture coordinate and face statements are consumed;
// everything else (normals, materials, smoothing groups) is skipped.
func ReadOBJ(path string) ([]*scenePkg.TriangleMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavefront: %v", err)
	}
	defer f.Close()

	r := &wavefrontReader{logger: log.New("wavefront")}
	start := time.Now()
	meshes, err := r.parse(f, path)
	if err != nil {
		return nil, err
	}
	r.logger.Infof("parsed %s (%d meshes) in %d ms", path, len(meshes), time.Since(start).Nanoseconds()/1e6)
	return meshes, nil
}

func (r *wavefrontReader) parse(in io.Reader, path string) ([]*scenePkg.TriangleMesh, error) {
	scanner := bufio.NewScanner(in)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		var err error
		switch fields[0] {
		case "v":
			err = r.parseVertex(fields[1:])
		case "vt":
			err = r.parseUV(fields[1:])
		case "f":
			err = r.parseFace(fields[1:])
		case "o", "g":
			r.flushMesh()
		}
		if err != nil {
			return nil, fmt.Errorf("wavefront: %s:%d: %v", path, lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("wavefront: %s: %v", path, err)
	}

	r.flushMesh()
	if len(r.meshes) == 0 {
		return nil, fmt.Errorf("wavefront: %s: no faces defined", path)
	}
	return r.meshes, nil
}

func (r *wavefrontReader) parseVertex(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("unsupported syntax for 'v'; expected 3 arguments; got %d", len(fields))
	}
	var v types.Vec3
	for i := 0; i < 3; i++ {
		val, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return err
		}
		v[i] = float32(val)
	}
	r.vertexList = append(r.vertexList, v)
	return nil
}

func (r *wavefrontReader) parseUV(fields []string) error {
	if len(fields) < 2 {
		return fmt.Errorf("unsupported syntax for 'vt'; expected 2 arguments; got %d", len(fields))
	}
	var uv types.Vec2
	for i := 0; i < 2; i++ {
		val, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return err
		}
		uv[i] = float32(val)
	}
	r.uvList = append(r.uvList, uv)
	return nil
}

// Parse a face statement, triangulating polygons as a fan around the first
// vertex. Vertex references may use any of the v, v/vt, v//vn and v/vt/vn
// forms; negative references index backwards from the current list end.
func (r *wavefrontReader) parseFace(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("unsupported syntax for 'f'; expected at least 3 arguments; got %d", len(fields))
	}

	verts := make([]uint32, len(fields))
	uvs := make([]types.Vec2, len(fields))
	for i, field := range fields {
		comps := strings.Split(field, "/")

		vIndex, err := r.resolveIndex(comps[0], len(r.vertexList))
		if err != nil {
			return err
		}
		verts[i] = vIndex

		if len(comps) > 1 && comps[1] != "" {
			uvIndex, err := r.resolveIndex(comps[1], len(r.uvList))
			if err != nil {
				return err
			}
			uvs[i] = r.uvList[uvIndex]
		}
	}

	for i := 1; i < len(verts)-1; i++ {
		r.curIndices = append(r.curIndices, verts[0], verts[i], verts[i+1])
		r.curUV = append(r.curUV, uvs[0], uvs[i], uvs[i+1])
	}
	return nil
}

// Resolve a 1-based (or negative, relative) wavefront index into a 0-based
// list offset.
func (r *wavefrontReader) resolveIndex(field string, listLen int) (uint32, error) {
	index, err := strconv.Atoi(field)
	if err != nil {
		return 0, err
	}
	switch {
	case index > 0 && index <= listLen:
		return uint32(index - 1), nil
	case index < 0 && listLen+index >= 0:
		return uint32(listLen + index), nil
	default:
		return 0, fmt.Errorf("index %d out of range", index)
	}
}

// Convert the accumulated face list into a triangle mesh. Vertices are
// re-indexed per mesh so that each mesh owns a compact vertex list.
func (r *wavefrontReader) flushMesh() {
	if len(r.curIndices) == 0 {
		return
	}

	remap := make(map[uint32]uint32, len(r.curIndices))
	vertices := make([]types.Vec3, 0, len(r.curIndices))
	uv := make([]types.Vec2, len(r.curIndices))
	indices := make([]uint32, len(r.curIndices))

	hasUV := false
	for i, globalIndex := range r.curIndices {
		local, seen := remap[globalIndex]
		if !seen {
			local = uint32(len(vertices))
			remap[globalIndex] = local
			vertices = append(vertices, r.vertexList[globalIndex])
		}
		indices[i] = local
		uv[local] = r.curUV[i]
		if r.curUV[i] != (types.Vec2{}) {
			hasUV = true
		}
	}
	uv = uv[:len(vertices)]
	if !hasUV {
		uv = nil
	}

	r.meshes = append(r.meshes, scenePkg.NewTriangleMesh(vertices, uv, indices))
	r.curIndices = nil
	r.curUV = nil
}
