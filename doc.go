/*
Package chem is the main package of the gostk library. It provides the molecular
graph used everywhere else (atoms, bonds and any number of conformers), together
with the geometric primitives, graph matching and file formats that the assembly
of macromolecules needs.

	**gostk Capabilities**

    Builds cages, linear polymers and finite patches of 2D covalent organic
    frameworks from building blocks tagged with functional groups (packages
    bblock, topology, assembly and macromol).

    Reads/writes MDL molfiles (V2000 and V3000), Tripos mol2 and multi-frame
    xyz files, the latter optionally gzip or zstd compressed.

    Finds substructures and checks graph isomorphism, regardless of atom order.

    Rotates sets of coordinates to align vectors, and fits planes to sets of points.

    Relaxes the assembled structures with a simple in-process force field,
    or with MacroModel, freezing all the internal coordinates that the assembly
    didn't create (packages constraint and optimize).

gostk uses goChem's matrix type for coordinates, v3.Matrix, based in gonum's Dense.
Each row of a v3.Matrix represents one point in space.
*/
package chem
